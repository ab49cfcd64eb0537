package telegram

import (
	"errors"
	"testing"

	"github.com/gotd/td/tgerr"
)

func TestParseChannelID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"bare id", "1234567890", 1234567890, false},
		{"bot api form", "-1001234567890", 1234567890, false},
		{"negative without marker", "-555", 555, false},

		{"zero", "0", 0, true},
		{"marker only", "-100", 0, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseChannelID(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseChannelID(%q) = %d, want error", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseChannelID(%q): %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("parseChannelID(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestMapResolveError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"username free", tgerr.New(400, "USERNAME_NOT_OCCUPIED"), ErrChannelNotFound},
		{"username invalid", tgerr.New(400, "USERNAME_INVALID"), ErrChannelNotFound},
		{"private channel", tgerr.New(400, "CHANNEL_PRIVATE"), ErrChannelAccessDenied},
		{"invalid channel", tgerr.New(400, "CHANNEL_INVALID"), ErrChannelAccessDenied},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := mapResolveError(tc.in); !errors.Is(got, tc.want) {
				t.Errorf("mapResolveError(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}

	plain := errors.New("network down")
	if got := mapResolveError(plain); !errors.Is(got, plain) {
		t.Errorf("mapResolveError must keep unrelated errors, got %v", got)
	}
	if mapResolveError(nil) != nil {
		t.Error("mapResolveError(nil) != nil")
	}
}

func TestResolveInputPatterns(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input        string
		wantUsername string
		wantNumeric  bool
	}{
		{"@durov_channel", "durov_channel", false},
		{"durov_channel", "durov_channel", false},
		{"https://t.me/durov_channel", "durov_channel", false},
		{"t.me/durov_channel/", "durov_channel", false},
		{"-1001234567890", "", true},
		{"1234567890", "", true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			if tc.wantNumeric {
				if !channelNumericRe.MatchString(tc.input) {
					t.Errorf("%q not recognized as numeric id", tc.input)
				}
				return
			}
			if m := channelLinkRe.FindStringSubmatch(tc.input); m != nil {
				if m[1] != tc.wantUsername {
					t.Errorf("link username = %q, want %q", m[1], tc.wantUsername)
				}
				return
			}
			m := channelUsernameRe.FindStringSubmatch(tc.input)
			if m == nil || m[1] != tc.wantUsername {
				t.Errorf("username parse of %q = %v, want %q", tc.input, m, tc.wantUsername)
			}
		})
	}
}
