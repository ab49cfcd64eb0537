package copyjob_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"telegram-copier/internal/domain/copyjob"
)

// fakeCopier моделирует источник и назначение в памяти.
type fakeCopier struct {
	mu       sync.Mutex
	missing   map[int]bool // ID, отсутствующие в источнике
	floodOn   map[int]int  // ID → сколько раз вернуть флуд-паузу перед успехом
	failFetch map[int]bool // ID, чтение которых отклоняется без паузы
	failSend  map[int]bool // ID, для которых отправка отклоняется
	onFetch   func(id int) // хук для сценариев отмены

	fetched []int
	sent    []int
}

func newFakeCopier() *fakeCopier {
	return &fakeCopier{
		missing:   make(map[int]bool),
		floodOn:   make(map[int]int),
		failFetch: make(map[int]bool),
		failSend:  make(map[int]bool),
	}
}

func (f *fakeCopier) Fetch(_ context.Context, msgID int) (copyjob.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetched = append(f.fetched, msgID)
	if f.onFetch != nil {
		f.onFetch(msgID)
	}
	if f.missing[msgID] {
		return copyjob.Message{}, copyjob.ErrMessageUnavailable
	}
	if f.floodOn[msgID] > 0 {
		f.floodOn[msgID]--
		return copyjob.Message{}, &copyjob.RateLimitedError{Wait: time.Second}
	}
	if f.failFetch[msgID] {
		return copyjob.Message{}, &copyjob.FetchFailedError{Reason: "access lost"}
	}
	return copyjob.Message{ID: msgID, Payload: "msg"}, nil
}

func (f *fakeCopier) Send(_ context.Context, msg copyjob.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSend[msg.ID] {
		return &copyjob.SendFailedError{Reason: "rejected by target"}
	}
	f.sent = append(f.sent, msg.ID)
	return nil
}

// instantSleep исключает реальные паузы из тестов.
func instantSleep(_ context.Context, _ time.Duration) error { return nil }

func mustJob(t *testing.T, c copyjob.Copier, start, end int, opts copyjob.Options) *copyjob.Job {
	t.Helper()
	if opts.Sleep == nil {
		opts.Sleep = instantSleep
	}
	job, err := copyjob.New(c, start, end, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return job
}

func TestRunVisitsWholeRangeInOrder(t *testing.T) {
	t.Parallel()

	fake := newFakeCopier()
	job := mustJob(t, fake, 10, 14, copyjob.Options{})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != copyjob.StatusCompleted {
		t.Errorf("status = %s, want completed", res.Status)
	}
	want := []int{10, 11, 12, 13, 14}
	if len(fake.fetched) != len(want) {
		t.Fatalf("fetched %v, want %v", fake.fetched, want)
	}
	for i, id := range want {
		if fake.fetched[i] != id {
			t.Errorf("fetch order[%d] = %d, want %d", i, fake.fetched[i], id)
		}
	}
	if res.Counts.Succeeded != 5 || res.Counts.Visited() != 5 {
		t.Errorf("counts = %+v, want 5 succeeded", res.Counts)
	}
}

func TestRunSkipsAbsentMessages(t *testing.T) {
	t.Parallel()

	// Диапазон 100..105, сообщение 103 удалено из источника.
	fake := newFakeCopier()
	fake.missing[103] = true
	job := mustJob(t, fake, 100, 105, copyjob.Options{})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Counts.Succeeded != 5 {
		t.Errorf("succeeded = %d, want 5", res.Counts.Succeeded)
	}
	if res.Counts.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Counts.Skipped)
	}
	if res.Counts.Failed != 0 {
		t.Errorf("failed = %d, want 0", res.Counts.Failed)
	}
	if got := res.Counts.Visited(); got != 6 {
		t.Errorf("visited = %d, want 6 (counter conservation)", got)
	}
}

func TestRunFloodWaitRetriesSameIDThenSucceeds(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	fake := newFakeCopier()
	fake.floodOn[21] = 2 // две паузы, третья попытка успешна

	job := mustJob(t, fake, 20, 22, copyjob.Options{
		MaxRetries: 3,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Counts.Succeeded != 3 || res.Counts.Failed != 0 {
		t.Errorf("counts = %+v, want 3 succeeded", res.Counts)
	}
	if len(slept) != 2 {
		t.Errorf("slept %d times, want 2 (server-specified waits)", len(slept))
	}

	// ID 21 запрошен трижды, порядок посещения не нарушен.
	wantFetches := []int{20, 21, 21, 21, 22}
	if len(fake.fetched) != len(wantFetches) {
		t.Fatalf("fetched %v, want %v", fake.fetched, wantFetches)
	}
	for i := range wantFetches {
		if fake.fetched[i] != wantFetches[i] {
			t.Errorf("fetch[%d] = %d, want %d", i, fake.fetched[i], wantFetches[i])
		}
	}
}

func TestRunFloodWaitRetriesBounded(t *testing.T) {
	t.Parallel()

	fake := newFakeCopier()
	fake.floodOn[5] = 100 // флуд-пауза «навсегда»

	job := mustJob(t, fake, 4, 6, copyjob.Options{MaxRetries: 3})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 1 исходная попытка + 3 повтора, затем failed и переход к следующему ID.
	attempts := 0
	for _, id := range fake.fetched {
		if id == 5 {
			attempts++
		}
	}
	if attempts != 4 {
		t.Errorf("attempts for id 5 = %d, want 4", attempts)
	}
	if res.Counts.Failed != 1 || res.Counts.Succeeded != 2 {
		t.Errorf("counts = %+v, want 2 succeeded / 1 failed", res.Counts)
	}
	if res.Status != copyjob.StatusCompleted {
		t.Errorf("status = %s, want completed (loop advances past failures)", res.Status)
	}
}

func TestRunSendFailureCountsFailedAndContinues(t *testing.T) {
	t.Parallel()

	fake := newFakeCopier()
	fake.failSend[2] = true
	job := mustJob(t, fake, 1, 3, copyjob.Options{})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Counts.Succeeded != 2 || res.Counts.Failed != 1 || res.Counts.Skipped != 0 {
		t.Errorf("counts = %+v, want 2/1/0", res.Counts)
	}
}

func TestRunFetchFailureCountsFailedAndContinues(t *testing.T) {
	t.Parallel()

	// Источник стал недоступен на одном ID (например, бота выгнали из канала
	// и вернули): исход failed, без повторов, цикл идёт дальше.
	fake := newFakeCopier()
	fake.failFetch[2] = true
	job := mustJob(t, fake, 1, 3, copyjob.Options{MaxRetries: 3})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Counts.Succeeded != 2 || res.Counts.Failed != 1 || res.Counts.Skipped != 0 {
		t.Errorf("counts = %+v, want 2/1/0", res.Counts)
	}
	// Неповторяемая ошибка не тратит повторы: каждый ID запрошен ровно раз.
	want := []int{1, 2, 3}
	if len(fake.fetched) != len(want) {
		t.Fatalf("fetched %v, want %v", fake.fetched, want)
	}
	for i := range want {
		if fake.fetched[i] != want[i] {
			t.Errorf("fetch[%d] = %d, want %d", i, fake.fetched[i], want[i])
		}
	}
}

func TestRunCancelStopsBeforeNextMessage(t *testing.T) {
	t.Parallel()

	fake := newFakeCopier()
	var job *copyjob.Job
	fake.onFetch = func(id int) {
		if id == 12 {
			job.Cancel()
		}
	}
	job = mustJob(t, fake, 10, 100, copyjob.Options{})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != copyjob.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", res.Status)
	}
	// Текущее сообщение (12) дорабатывается, 13 уже не запрашивается.
	if got := res.Counts.Visited(); got != 3 {
		t.Errorf("visited = %d, want 3", got)
	}
	for _, id := range fake.fetched {
		if id > 12 {
			t.Errorf("fetched id %d after cancellation", id)
		}
	}
}

func TestRunCancelBeforeFirstMessage(t *testing.T) {
	t.Parallel()

	fake := newFakeCopier()
	var reports []copyjob.Progress
	job := mustJob(t, fake, 50, 60, copyjob.Options{
		OnProgress: func(p copyjob.Progress) { reports = append(reports, p) },
	})
	job.Cancel()

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != copyjob.StatusCancelled || res.Counts.Visited() != 0 {
		t.Fatalf("result = %+v, want cancelled with zero counts", res)
	}
	if len(fake.fetched) != 0 {
		t.Errorf("fetched %v, want nothing", fake.fetched)
	}
	// Финальный отчёт не выводит указатель за пределы диапазона.
	if len(reports) != 1 || reports[0].CurrentID != 50 {
		t.Errorf("final report = %+v, want CurrentID 50", reports)
	}
}

func TestRunContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	fake := newFakeCopier()
	fake.onFetch = func(id int) {
		if id == 3 {
			cancel()
		}
	}
	job := mustJob(t, fake, 1, 10, copyjob.Options{})

	res, err := job.Run(ctx)
	if err == nil {
		t.Fatal("Run: expected context error")
	}
	if res.Status != copyjob.StatusCancelled {
		t.Errorf("status = %s, want cancelled", res.Status)
	}
	if res.Counts.Visited() > 3 {
		t.Errorf("visited = %d, want <= 3", res.Counts.Visited())
	}
}

func TestRunProgressCadence(t *testing.T) {
	t.Parallel()

	fake := newFakeCopier()
	var reports []copyjob.Progress
	job := mustJob(t, fake, 1, 25, copyjob.Options{
		ProgressEvery: 10,
		OnProgress:    func(p copyjob.Progress) { reports = append(reports, p) },
	})

	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Два промежуточных отчёта (после 10 и 20) плюс финальный.
	if len(reports) != 3 {
		t.Fatalf("got %d progress reports, want 3: %+v", len(reports), reports)
	}
	if reports[0].Counts.Visited() != 10 || reports[1].Counts.Visited() != 20 {
		t.Errorf("intermediate reports at %d and %d visited, want 10 and 20",
			reports[0].Counts.Visited(), reports[1].Counts.Visited())
	}
	final := reports[len(reports)-1]
	if final.Counts.Visited() != 25 || final.Total != 25 {
		t.Errorf("final report = %+v, want visited 25 of 25", final)
	}
}

func TestRunTwoJobsIndependent(t *testing.T) {
	t.Parallel()

	first := newFakeCopier()
	first.missing[2] = true
	second := newFakeCopier()

	jobA := mustJob(t, first, 1, 5, copyjob.Options{})
	jobB := mustJob(t, second, 100, 104, copyjob.Options{})

	var wg sync.WaitGroup
	var resA, resB copyjob.Result
	wg.Add(2)
	go func() {
		defer wg.Done()
		resA, _ = jobA.Run(context.Background())
	}()
	go func() {
		defer wg.Done()
		resB, _ = jobB.Run(context.Background())
	}()
	wg.Wait()

	if resA.Counts.Skipped != 1 || resA.Counts.Succeeded != 4 {
		t.Errorf("job A counts = %+v, want 4 succeeded / 1 skipped", resA.Counts)
	}
	if resB.Counts.Succeeded != 5 || resB.Counts.Skipped != 0 {
		t.Errorf("job B counts = %+v, want 5 succeeded", resB.Counts)
	}
}

func TestNewRejectsInvalidRange(t *testing.T) {
	t.Parallel()

	fake := newFakeCopier()
	cases := []struct {
		name       string
		start, end int
	}{
		{"zero start", 0, 10},
		{"negative", -1, 5},
		{"inverted", 10, 5},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := copyjob.New(fake, tc.start, tc.end, copyjob.Options{}); err == nil {
				t.Errorf("New(%d, %d) succeeded, want error", tc.start, tc.end)
			}
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "45 сек"},
		{125 * time.Second, "2 мин 05 сек"},
		{4320 * time.Second, "1 ч 12 мин"},
	}
	for _, tc := range cases {
		if got := copyjob.FormatElapsed(tc.in); got != tc.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
