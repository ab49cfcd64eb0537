package throttle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-copier/internal/infra/throttle"
)

// stopErr — ошибка, запрещающая повторы.
type stopErr struct{ msg string }

func (e stopErr) Error() string   { return e.msg }
func (e stopErr) StopRetry() bool { return true }

// waitErr — ошибка с серверной паузой, распознаваемой экстрактором.
type waitErr struct{ wait time.Duration }

func (e waitErr) Error() string { return "server says wait" }

func waitExtractor(err error) (time.Duration, bool) {
	var we waitErr
	if errors.As(err, &we) {
		return we.wait, true
	}
	return 0, false
}

// noSleep подменяет ожидание, фиксируя запрошенные паузы.
func noSleep(sink *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*sink = append(*sink, d)
		return nil
	}
}

func TestDoRequiresStart(t *testing.T) {
	t.Parallel()

	tr := throttle.New(10)
	err := tr.Do(context.Background(), func() error { return nil })
	if !errors.Is(err, throttle.ErrNotStarted) {
		t.Fatalf("Do before Start: got %v, want ErrNotStarted", err)
	}
}

func TestDoSuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	tr := throttle.New(100)
	tr.Start(context.Background())
	defer tr.Stop()

	calls := 0
	if err := tr.Do(context.Background(), func() error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("Do: unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestDoStopRetryerReturnsImmediately(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	tr := throttle.New(100, throttle.WithSleeper(noSleep(&slept)))
	tr.Start(context.Background())
	defer tr.Stop()

	calls := 0
	want := stopErr{msg: "fatal"}
	err := tr.Do(context.Background(), func() error {
		calls++
		return want
	})
	var got stopErr
	if !errors.As(err, &got) {
		t.Fatalf("Do: got %v, want stopErr", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (no retries)", calls)
	}
	if len(slept) != 0 {
		t.Errorf("slept %v, want no sleeps", slept)
	}
}

func TestDoServerWaitCountsTowardLimit(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	tr := throttle.New(100,
		throttle.WithMaxRetries(3),
		throttle.WithWaitExtractors(waitExtractor),
		throttle.WithSleeper(noSleep(&slept)),
	)
	tr.Start(context.Background())
	defer tr.Stop()

	calls := 0
	err := tr.Do(context.Background(), func() error {
		calls++
		return waitErr{wait: 5 * time.Second}
	})
	if err == nil {
		t.Fatal("Do: expected error after retry limit, got nil")
	}
	// 1 исходный вызов + 3 повтора.
	if calls != 4 {
		t.Errorf("fn called %d times, want 4", calls)
	}
	for i, d := range slept {
		if d != 5*time.Second {
			t.Errorf("sleep[%d] = %v, want 5s (server-specified)", i, d)
		}
	}
	if len(slept) != 3 {
		t.Errorf("slept %d times, want 3", len(slept))
	}
}

func TestDoBackoffGrowsExponentially(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	tr := throttle.New(100,
		throttle.WithMaxRetries(3),
		throttle.WithRandom(func() float64 { return 0.5 }), // джиттер ровно 1.0
		throttle.WithSleeper(noSleep(&slept)),
	)
	tr.Start(context.Background())
	defer tr.Stop()

	transient := errors.New("transient")
	err := tr.Do(context.Background(), func() error { return transient })
	if !errors.Is(err, transient) {
		t.Fatalf("Do: got %v, want wrapped transient error", err)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestDoContextCancelled(t *testing.T) {
	t.Parallel()

	tr := throttle.New(100)
	tr.Start(context.Background())
	defer tr.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.Do(ctx, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do with cancelled ctx: got %v, want context.Canceled", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()

	tr := throttle.New(10)
	tr.Start(context.Background())
	tr.Stop()
	tr.Stop()
}
