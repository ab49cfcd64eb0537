package convo_test

import (
	"testing"

	"telegram-copier/internal/domain/convo"
)

func TestParseMessageID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"plain number", "1523", 1523, false},
		{"number with spaces", "  42  ", 42, false},
		{"public channel link", "https://t.me/somechannel/777", 777, false},
		{"private channel link", "https://t.me/c/1234567890/555", 555, false},
		{"link without scheme", "t.me/somechannel/12", 12, false},
		{"link with query", "https://t.me/somechannel/99?single", 99, false},
		{"www prefix", "https://www.t.me/somechannel/5", 5, false},

		{"empty", "", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-5", 0, true},
		{"words", "hello", 0, true},
		{"link without message id", "https://t.me/somechannel", 0, true},
		{"foreign host", "https://example.com/chan/5", 0, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := convo.ParseMessageID(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseMessageID(%q) = %d, want error", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMessageID(%q): %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseMessageID(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		input     string
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"simple", "100-250", 100, 250, true},
		{"with spaces", "100 - 250", 100, 250, true},
		{"swapped bounds normalized", "250-100", 100, 250, true},
		{"single message", "7-7", 7, 7, true},

		{"not a range", "100", 0, 0, false},
		{"trailing garbage", "100-250x", 0, 0, false},
		{"zero bound", "0-10", 0, 0, false},
		{"negative", "-5-10", 0, 0, false},
		{"empty", "", 0, 0, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			start, end, ok := convo.ParseRange(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("ParseRange(%q) ok = %v, want %v", tc.input, ok, tc.wantOK)
			}
			if start != tc.wantStart || end != tc.wantEnd {
				t.Errorf("ParseRange(%q) = (%d, %d), want (%d, %d)",
					tc.input, start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"international", "+79161234567", "+79161234567", false},
		{"without plus", "79161234567", "79161234567", false},
		{"with separators", "+7 (916) 123-45-67", "+79161234567", false},
		{"fifteen digits", "+123456789012345", "+123456789012345", false},

		{"too short", "+123456789", "", true},
		{"too long", "+1234567890123456", "", true},
		{"letters", "+7916abc4567", "", true},
		{"empty", "", "", true},
		{"just plus", "+", "", true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := convo.ValidatePhone(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ValidatePhone(%q) = %q, want error", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatePhone(%q): %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ValidatePhone(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
