// Package throttle — ограничение скорости и повторные попытки для вызовов Telegram API.
// Основа — токен-бакет (RPS + burst) и экспоненциальный backoff с джиттером для
// транзиентных ошибок. Серверные указания подождать (FLOOD_WAIT, retry_after)
// извлекаются цепочкой WaitExtractor. Ошибки, реализующие StopRetryer, прекращают
// повторы немедленно — так доменные ошибки копирования поднимаются наверх без задержек.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// burstFactor задаёт ёмкость бакета по умолчанию как кратную rate: допускается
// кратковременный всплеск до burstFactor*rate операций.
const burstFactor = 2

// WaitExtractor распознаёт в ошибке серверную паузу и возвращает её длительность.
// Второе значение — признак того, что формат ошибки распознан. Экстракторы
// применяются в порядке регистрации, первый совпавший определяет паузу.
type WaitExtractor func(err error) (time.Duration, bool)

// StopRetryer помечает ошибку как неповторяемую: Do возвращает её сразу.
type StopRetryer interface {
	StopRetry() bool
}

// Option настраивает троттлер при создании.
type Option func(*Throttler)

// WithMaxRetries ограничивает число повторов. Значение <=0 — без ограничения.
// Серверные паузы тоже учитываются в счётчике попыток, так что «вечный»
// FLOOD_WAIT не зациклит вызов.
func WithMaxRetries(n int) Option {
	return func(t *Throttler) { t.maxRetries = n }
}

// WithBurst переопределяет ёмкость токен-бакета. burst<=0 вернёт дефолт burstFactor*rate.
func WithBurst(burst int) Option {
	return func(t *Throttler) { t.burst = burst }
}

// WithWaitExtractors регистрирует экстракторы серверных пауз.
func WithWaitExtractors(extractors ...WaitExtractor) Option {
	return func(t *Throttler) {
		cloned := make([]WaitExtractor, len(extractors))
		copy(cloned, extractors)
		t.waitExtractors = append(t.waitExtractors, cloned...)
	}
}

// WithRandom подменяет источник случайности джиттера (для детерминированных тестов).
func WithRandom(fn func() float64) Option {
	return func(t *Throttler) {
		if fn != nil {
			t.randomFn = fn
		}
	}
}

// WithSleeper подменяет функцию ожидания (для тестов без реального сна).
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(t *Throttler) {
		if fn != nil {
			t.sleepFn = fn
		}
	}
}

// ErrNotStarted возвращается из Do, если Start ещё не вызывался.
var ErrNotStarted = errors.New("throttle: Start must be called before Do")

// Throttler — токен-бакет плюс стратегия повторов. Потокобезопасен: Do можно
// вызывать из нескольких горутин, Start/Stop идемпотентны.
type Throttler struct {
	rate  int // токенов в секунду
	burst int // ёмкость бакета

	tokens chan struct{} // каждый токен разрешает один вызов

	waitExtractors []WaitExtractor
	maxRetries     int // -1 — без ограничений

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	rootCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	randomFn func() float64
	sleepFn  func(ctx context.Context, d time.Duration) error
}

// New создаёт троттлер с частотой rate операций в секунду.
// Пополнение бакета начинается после Start.
func New(rate int, opts ...Option) *Throttler {
	if rate <= 0 {
		rate = 1
	}

	t := &Throttler{
		rate:       rate,
		burst:      rate * burstFactor,
		maxRetries: -1,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.burst < 1 {
		t.burst = max(rate*burstFactor, 1)
	}
	if t.randomFn == nil {
		t.randomFn = rand.Float64
	}
	if t.sleepFn == nil {
		t.sleepFn = nil // означает «реальный таймер» в wait
	}
	return t
}

// Start предзаполняет бакет и запускает фоновое пополнение. Идемпотентен.
func (t *Throttler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	t.startOnce.Do(func() {
		t.mu.Lock()
		t.rootCtx, t.cancel = context.WithCancel(ctx)
		t.tokens = make(chan struct{}, t.burst)
		for range t.burst {
			t.tokens <- struct{}{}
		}
		t.mu.Unlock()

		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.refillLoop()
		}()
	})
}

// Stop отменяет корневой контекст и дожидается фоновой горутины. Идемпотентен.
func (t *Throttler) Stop() {
	if !t.isStarted() {
		return
	}
	t.stopOnce.Do(func() {
		if t.cancel != nil {
			t.cancel()
		}
		t.wg.Wait()
	})
}

// Do выполняет fn под лимитами бакета с повторами.
//
// Классификация ошибки после вызова fn:
//   - StopRetryer → вернуть немедленно;
//   - контекст отменён → вернуть ошибку контекста;
//   - экстрактор распознал серверную паузу → подождать её и повторить
//     (попытка учитывается в лимите);
//   - иначе экспоненциальный backoff с джиттером и повтор до лимита.
func (t *Throttler) Do(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	root := t.rootContext()
	if root == nil {
		return ErrNotStarted
	}
	maxRetries := t.maxRetries

	attempt := 0
	for {
		if err := t.takeToken(ctx, root); err != nil {
			return err
		}

		callErr := fn()
		if callErr == nil {
			return nil
		}

		var stopper StopRetryer
		switch {
		case errors.As(callErr, &stopper) && stopper.StopRetry():
			return callErr
		case errors.Is(callErr, context.Canceled) || errors.Is(callErr, context.DeadlineExceeded):
			return callErr
		}

		if maxRetries > 0 && attempt >= maxRetries {
			return fmt.Errorf("throttle: max retries reached (%d): last error: %w", maxRetries, callErr)
		}

		pause, serverWait := t.extractWait(callErr)
		if !serverWait {
			pause = t.expBackoff(attempt)
		}
		attempt++

		if wErr := t.wait(ctx, root, pause); wErr != nil {
			return wErr
		}
	}
}

func (t *Throttler) rootContext() context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rootCtx
}

func (t *Throttler) isStarted() bool {
	return t.rootContext() != nil
}

// takeToken блокирует до получения токена либо отмены одного из контекстов.
// Остановка троттлера транслируется в context.Canceled.
func (t *Throttler) takeToken(ctx, root context.Context) error {
	t.mu.Lock()
	tokenCh := t.tokens
	t.mu.Unlock()
	if tokenCh == nil {
		return ErrNotStarted
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-root.Done():
		return context.Canceled
	case <-tokenCh:
		return nil
	}
}

// refillLoop добавляет токен каждые 1/rate секунды, не переполняя бакет.
func (t *Throttler) refillLoop() {
	root := t.rootContext()
	if root == nil {
		return
	}

	interval := time.Second / time.Duration(t.rate)
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-root.Done():
			return
		case <-ticker.C:
			select {
			case t.tokens <- struct{}{}:
			default:
			}
		}
	}
}

// extractWait прогоняет ошибку через цепочку экстракторов.
func (t *Throttler) extractWait(err error) (time.Duration, bool) {
	for _, extractor := range t.waitExtractors {
		if extractor == nil {
			continue
		}
		if wait, ok := extractor(err); ok {
			return wait, true
		}
	}
	return 0, false
}

// wait спит duration с уважением к обоим контекстам.
func (t *Throttler) wait(ctx, root context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}
	if t.sleepFn != nil {
		return t.sleepFn(ctx, duration)
	}

	timer := time.NewTimer(duration)
	defer stopTimer(timer)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-root.Done():
		return context.Canceled
	case <-timer.C:
		return nil
	}
}

// expBackoff — 2^attempt секунд, не более 60, с джиттером [0.85..1.15].
func (t *Throttler) expBackoff(attempt int) time.Duration {
	const (
		jitterRange = 0.3
		jitterMin   = 0.85
		maxSeconds  = 60.0
	)

	base := math.Pow(2, float64(attempt))
	if base > maxSeconds {
		base = maxSeconds
	}
	jitter := t.randomFn()*jitterRange + jitterMin
	return time.Duration(base * jitter * float64(time.Second))
}

// stopTimer останавливает таймер и дренирует канал, если тик уже случился.
func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
