package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-copier/internal/domain/copyjob"
	"telegram-copier/internal/infra/throttle"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

func TestFloodOrConvertsFloodWait(t *testing.T) {
	t.Parallel()

	flood := tgerr.New(420, "FLOOD_WAIT_17")
	got := floodOr(flood)

	var rateLimited *copyjob.RateLimitedError
	if !errors.As(got, &rateLimited) {
		t.Fatalf("floodOr(FLOOD_WAIT_17) = %v, want RateLimitedError", got)
	}
	if rateLimited.Wait != 17*time.Second {
		t.Errorf("Wait = %v, want 17s", rateLimited.Wait)
	}

	other := errors.New("boom")
	if floodOr(other) != other {
		t.Error("floodOr must pass non-flood errors through unchanged")
	}
}

func TestFetchErrMarksPersistentErrorsNonRetryable(t *testing.T) {
	t.Parallel()

	// Потеря доступа посреди задания не должна зацикливать троттлер на
	// повторах: ошибка обязана стать неповторяемой и дойти до цикла задания.
	access := tgerr.New(400, "CHANNEL_PRIVATE")
	got := fetchErr(access)

	var fetchFailed *copyjob.FetchFailedError
	if !errors.As(got, &fetchFailed) {
		t.Fatalf("fetchErr(CHANNEL_PRIVATE) = %v, want FetchFailedError", got)
	}
	var stopper throttle.StopRetryer
	if !errors.As(got, &stopper) || !stopper.StopRetry() {
		t.Error("fetch failure must stop throttler retries")
	}

	flood := tgerr.New(420, "FLOOD_WAIT_9")
	var rateLimited *copyjob.RateLimitedError
	if !errors.As(fetchErr(flood), &rateLimited) {
		t.Error("flood wait must stay a RateLimitedError")
	}

	if got := fetchErr(context.Canceled); !errors.Is(got, context.Canceled) {
		t.Errorf("context cancellation must pass through, got %v", got)
	}
}

func TestSendErrMarksPersistentErrorsNonRetryable(t *testing.T) {
	t.Parallel()

	var sendFailed *copyjob.SendFailedError
	if got := sendErr(tgerr.New(400, "CHAT_WRITE_FORBIDDEN")); !errors.As(got, &sendFailed) {
		t.Fatalf("sendErr(CHAT_WRITE_FORBIDDEN) = %v, want SendFailedError", got)
	}
	if got := sendErr(context.DeadlineExceeded); !errors.Is(got, context.DeadlineExceeded) {
		t.Errorf("context deadline must pass through, got %v", got)
	}
}

func TestPickMessage(t *testing.T) {
	t.Parallel()

	msg := &tg.Message{ID: 105, Message: "text"}
	res := &tg.MessagesChannelMessages{
		Messages: []tg.MessageClass{
			&tg.MessageEmpty{ID: 104},
			msg,
		},
	}

	if got := pickMessage(res, 105); got != msg {
		t.Errorf("pickMessage(105) = %v, want the full message", got)
	}
	// MessageEmpty по запрошенному ID означает отсутствие сообщения.
	if got := pickMessage(res, 104); got != nil {
		t.Errorf("pickMessage(104) = %v, want nil for empty message", got)
	}
	if got := pickMessage(&tg.MessagesMessagesNotModified{}, 1); got != nil {
		t.Errorf("pickMessage on not-modified = %v, want nil", got)
	}
}

func TestReproducible(t *testing.T) {
	t.Parallel()

	photo := &tg.MessageMediaPhoto{}
	photo.Photo = &tg.Photo{ID: 1, AccessHash: 2, FileReference: []byte{3}}

	cases := []struct {
		name string
		msg  *tg.Message
		want bool
	}{
		{"plain text", &tg.Message{Message: "hello"}, true},
		{"photo without caption", &tg.Message{Media: photo}, true},
		{"empty service-like", &tg.Message{}, false},
		{"poll without text", &tg.Message{Media: &tg.MessageMediaPoll{}}, false},
		{"poll with caption text", &tg.Message{Message: "caption", Media: &tg.MessageMediaPoll{}}, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := reproducible(tc.msg); got != tc.want {
				t.Errorf("reproducible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReferencedMedia(t *testing.T) {
	t.Parallel()

	docMedia := &tg.MessageMediaDocument{}
	docMedia.Document = &tg.Document{ID: 7, AccessHash: 8, FileReference: []byte{9}}

	media, ok := referencedMedia(&tg.Message{Media: docMedia})
	if !ok {
		t.Fatal("referencedMedia on document = false, want true")
	}
	input, ok := media.(*tg.InputMediaDocument)
	if !ok {
		t.Fatalf("media type = %T, want InputMediaDocument", media)
	}
	id, ok := input.ID.(*tg.InputDocument)
	if !ok || id.ID != 7 || id.AccessHash != 8 {
		t.Errorf("input document = %+v, want id 7 / hash 8", input.ID)
	}

	if _, ok := referencedMedia(&tg.Message{}); ok {
		t.Error("referencedMedia on text message = true, want false")
	}
	if _, ok := referencedMedia(&tg.Message{Media: &tg.MessageMediaGeo{}}); ok {
		t.Error("referencedMedia on geo = true, want false")
	}
}
