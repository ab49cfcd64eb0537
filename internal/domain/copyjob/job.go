// Package copyjob — выполнение задания копирования диапазона сообщений.
// Цикл работает поверх порта Copier и ничего не знает о Telegram: сетевые
// детали (разрешение каналов, формирование запросов, маппинг ошибок API)
// остаются за адаптером. Это позволяет проверять семантику цикла — счётчики,
// повторы, отмену — на фейках без сети.
package copyjob

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Message — сообщение, перенесённое из fetch в send. Payload непрозрачен для
// цикла: адаптер кладёт туда всё, что нужно для повторной отправки.
type Message struct {
	ID      int
	Payload any
}

// Copier — порт к каналам источника и назначения. Fetch возвращает сообщение
// источника по ID, Send публикует его в назначение. Обе операции обязаны
// уважать ctx.
type Copier interface {
	Fetch(ctx context.Context, msgID int) (Message, error)
	Send(ctx context.Context, msg Message) error
}

// ErrMessageUnavailable сигнализирует, что сообщения с данным ID в источнике
// нет (удалено или никогда не существовало). Цикл учитывает его как skipped.
var ErrMessageUnavailable = errors.New("message unavailable in source channel")

// RateLimitedError — сервер потребовал паузу. Wait — длительность, указанная
// сервером. Цикл повторяет тот же ID после паузы, не более MaxRetries раз.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: server requests %s pause", e.Wait)
}

// StopRetry запрещает инфраструктурному троттлеру скрытые повторы: паузами
// флуд-контроля распоряжается цикл задания.
func (e *RateLimitedError) StopRetry() bool { return true }

// SendFailedError — отправка в канал назначения отклонена без требования
// паузы. Сообщение учитывается как failed, цикл продолжает со следующего ID.
type SendFailedError struct {
	Reason string
}

func (e *SendFailedError) Error() string {
	return "send failed: " + e.Reason
}

func (e *SendFailedError) StopRetry() bool { return true }

// FetchFailedError — чтение из источника отклонено без требования паузы
// (например, доступ к каналу потерян по ходу задания). Сообщение учитывается
// как failed, цикл продолжает со следующего ID.
type FetchFailedError struct {
	Reason string
}

func (e *FetchFailedError) Error() string {
	return "fetch failed: " + e.Reason
}

func (e *FetchFailedError) StopRetry() bool { return true }

// Status — итоговый статус задания.
type Status int

const (
	// StatusCompleted — пройден весь диапазон.
	StatusCompleted Status = iota
	// StatusCancelled — задание остановлено до конца диапазона.
	StatusCancelled
)

func (s Status) String() string {
	if s == StatusCancelled {
		return "cancelled"
	}
	return "completed"
}

// Counts — счётчики исходов по сообщениям. Инвариант цикла:
// Succeeded+Failed+Skipped равно числу посещённых ID.
type Counts struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Visited возвращает число обработанных ID.
func (c Counts) Visited() int { return c.Succeeded + c.Failed + c.Skipped }

// Progress — снимок хода выполнения для периодического отчёта в чат.
type Progress struct {
	CurrentID int
	Total     int
	Counts    Counts
	Elapsed   time.Duration
}

// Throughput возвращает текущую скорость в сообщениях в секунду.
func (p Progress) Throughput() float64 {
	sec := p.Elapsed.Seconds()
	if sec <= 0 {
		return 0
	}
	return float64(p.Counts.Visited()) / sec
}

// Result — итог задания: счётчики, длительность и статус завершения.
type Result struct {
	Counts  Counts
	Elapsed time.Duration
	Status  Status
}

// Throughput возвращает скорость в сообщениях в секунду.
func (r Result) Throughput() float64 {
	sec := r.Elapsed.Seconds()
	if sec <= 0 {
		return 0
	}
	return float64(r.Counts.Visited()) / sec
}

// FormatElapsed печатает длительность в человекочитаемом виде: "45 сек",
// "2 мин 05 сек", "1 ч 12 мин".
func FormatElapsed(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	switch {
	case total < 60:
		return fmt.Sprintf("%d сек", total)
	case total < 3600:
		return fmt.Sprintf("%d мин %02d сек", total/60, total%60)
	default:
		return fmt.Sprintf("%d ч %02d мин", total/3600, (total%3600)/60)
	}
}
