package copyjob

import (
	"context"
	"sync/atomic"
	"time"

	"telegram-copier/internal/infra/logger"

	"github.com/go-faster/errors"

	"go.uber.org/zap"
)

// Options — параметры выполнения задания.
type Options struct {
	// MaxRetries — сколько раз повторять тот же ID после флуд-паузы,
	// прежде чем учесть его как failed и двигаться дальше.
	MaxRetries int
	// ProgressEvery — каждые сколько сообщений вызывать OnProgress.
	ProgressEvery int
	// OnProgress вызывается синхронно из цикла; nil отключает отчёты.
	OnProgress func(Progress)
	// Sleep и Now подменяются в тестах. Нулевые значения дают реальные
	// таймер и часы.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

const (
	defaultMaxRetries    = 3
	defaultProgressEvery = 10
)

// Job — одно задание копирования. Создаётся через New, выполняется Run,
// останавливается Cancel. Повторный Run того же Job не поддерживается.
type Job struct {
	copier  Copier
	startID int
	endID   int
	opts    Options

	cancelled atomic.Bool
}

// New подготавливает задание по включительному диапазону [startID, endID].
func New(copier Copier, startID, endID int, opts Options) (*Job, error) {
	if copier == nil {
		return nil, errors.New("copyjob: nil copier")
	}
	if startID <= 0 || endID <= 0 || startID > endID {
		return nil, errors.Errorf("copyjob: invalid range [%d, %d]", startID, endID)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = defaultProgressEvery
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Job{copier: copier, startID: startID, endID: endID, opts: opts}, nil
}

// Cancel запрашивает кооперативную остановку: текущее сообщение дорабатывается,
// следующий ID уже не берётся. Потокобезопасен, идемпотентен.
func (j *Job) Cancel() {
	j.cancelled.Store(true)
}

// Cancelled сообщает, запрошена ли остановка.
func (j *Job) Cancelled() bool {
	return j.cancelled.Load()
}

// Total возвращает размер диапазона.
func (j *Job) Total() int { return j.endID - j.startID + 1 }

// Run последовательно проходит диапазон. Исход каждого ID попадает ровно в
// один из счётчиков: succeeded, failed или skipped. Ошибка возвращается
// только при срыве контекста; все прочие ошибки поглощаются счётчиками.
func (j *Job) Run(ctx context.Context) (Result, error) {
	startedAt := j.opts.Now()
	var counts Counts

	finish := func(status Status) Result {
		res := Result{
			Counts:  counts,
			Elapsed: j.opts.Now().Sub(startedAt),
			Status:  status,
		}
		currentID := j.startID + counts.Visited() - 1
		if counts.Visited() == 0 {
			// Остановка до первого сообщения: указатель не выходит за диапазон.
			currentID = j.startID
		}
		j.report(Progress{
			CurrentID: currentID,
			Total:     j.Total(),
			Counts:    counts,
			Elapsed:   res.Elapsed,
		})
		return res
	}

	for id := j.startID; id <= j.endID; id++ {
		if j.Cancelled() {
			logger.Info("copy job cancelled",
				zap.Int("at_id", id), zap.Int("visited", counts.Visited()))
			return finish(StatusCancelled), nil
		}
		if err := ctx.Err(); err != nil {
			return finish(StatusCancelled), err
		}

		switch j.copyOne(ctx, id) {
		case outcomeSucceeded:
			counts.Succeeded++
		case outcomeSkipped:
			counts.Skipped++
		case outcomeFailed:
			counts.Failed++
		case outcomeAborted:
			return finish(StatusCancelled), ctx.Err()
		}

		if counts.Visited()%j.opts.ProgressEvery == 0 && id != j.endID {
			j.report(Progress{
				CurrentID: id,
				Total:     j.Total(),
				Counts:    counts,
				Elapsed:   j.opts.Now().Sub(startedAt),
			})
		}
	}

	return finish(StatusCompleted), nil
}

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeSkipped
	outcomeFailed
	outcomeAborted
)

// copyOne переносит одно сообщение с повторами при флуд-паузах. Повторы
// ограничены MaxRetries на сообщение; любая другая ошибка решает исход сразу.
func (j *Job) copyOne(ctx context.Context, id int) outcome {
	retries := 0
	for {
		err := j.fetchAndSend(ctx, id)
		if err == nil {
			return outcomeSucceeded
		}

		var rateLimited *RateLimitedError
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return outcomeAborted

		case errors.Is(err, ErrMessageUnavailable):
			logger.Debug("message absent in source, skipping", zap.Int("msg_id", id))
			return outcomeSkipped

		case errors.As(err, &rateLimited):
			if retries >= j.opts.MaxRetries {
				logger.Warn("flood wait retries exhausted",
					zap.Int("msg_id", id), zap.Int("retries", retries))
				return outcomeFailed
			}
			retries++
			logger.Debug("flood wait, retrying same message",
				zap.Int("msg_id", id),
				zap.Duration("wait", rateLimited.Wait),
				zap.Int("attempt", retries))
			if sErr := j.opts.Sleep(ctx, rateLimited.Wait); sErr != nil {
				return outcomeAborted
			}

		default:
			logger.Warn("message copy failed", zap.Int("msg_id", id), zap.Error(err))
			return outcomeFailed
		}
	}
}

// fetchAndSend — один проход fetch+send для данного ID.
func (j *Job) fetchAndSend(ctx context.Context, id int) error {
	msg, err := j.copier.Fetch(ctx, id)
	if err != nil {
		return err
	}
	return j.copier.Send(ctx, msg)
}

func (j *Job) report(p Progress) {
	if j.opts.OnProgress != nil {
		j.opts.OnProgress(p)
	}
}

// sleepCtx ждёт d с уважением к контексту.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
