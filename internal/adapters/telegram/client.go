// Package telegram — адаптер пользовательского MTProto-клиента (gotd).
// Содержит движок соединения, сценарии логина, разрешение каналов и копирщик
// сообщений. Доменные пакеты общаются с ним только через порты и доменные
// ошибки; типы gotd наружу не выходят.
package telegram

import (
	"context"
	"sync"
	"time"

	"telegram-copier/internal/infra/logger"
	"telegram-copier/internal/infra/telegram/session"

	"github.com/go-faster/errors"

	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/contrib/middleware/ratelimit"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"golang.org/x/time/rate"
)

// connectTimeout ограничивает ожидание готовности MTProto-движка при старте.
const connectTimeout = 30 * time.Second

// EngineConfig — параметры создания клиента.
type EngineConfig struct {
	APIID       int
	APIHash     string
	ThrottleRPS int
	TestDC      bool
}

// engine держит живой telegram.Client. Клиент gotd работает только внутри
// callback его Run, поэтому движок запускает Run в собственной горутине,
// сигнализирует о готовности и живёт до Stop или падения соединения.
type engine struct {
	client *telegram.Client
	cancel context.CancelFunc

	ready chan struct{} // закрывается, когда API готов к вызовам
	done  chan struct{} // закрывается при выходе Run

	mu     sync.Mutex
	runErr error
}

// startEngine создаёт клиент над заданным хранилищем сессии и блокируется до
// готовности API либо ошибки/таймаута подключения.
func startEngine(ctx context.Context, cfg EngineConfig, store *session.Store) (*engine, error) {
	waiter := floodwait.NewWaiter()

	options := telegram.Options{
		SessionStorage: &session.TDStorage{Store: store},
		Middlewares: []telegram.Middleware{
			waiter,
			ratelimit.New(rate.Limit(cfg.ThrottleRPS), cfg.ThrottleRPS*2),
		},
		Device: telegram.DeviceConfig{
			DeviceModel:   "MacBookPro18,1",
			SystemVersion: "macOS v15.6.1 build 24G90",
			AppVersion:    "1.0.0",
		},
	}
	if cfg.TestDC {
		options.DCList = dcs.Test()
	}

	runCtx, cancel := context.WithCancel(ctx)
	e := &engine{
		client: telegram.NewClient(cfg.APIID, cfg.APIHash, options),
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(e.done)
		err := waiter.Run(runCtx, func(ctx context.Context) error {
			return e.client.Run(ctx, func(ctx context.Context) error {
				close(e.ready)
				<-ctx.Done()
				return ctx.Err()
			})
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("mtproto engine stopped: %v", err)
		}
		e.mu.Lock()
		e.runErr = err
		e.mu.Unlock()
	}()

	select {
	case <-e.ready:
		return e, nil
	case <-e.done:
		cancel()
		return nil, errors.Wrap(ErrRemoteRejected, "mtproto engine failed to start")
	case <-time.After(connectTimeout):
		cancel()
		<-e.done
		return nil, errors.Wrap(ErrRemoteRejected, "mtproto connect timeout")
	case <-ctx.Done():
		cancel()
		<-e.done
		return nil, ctx.Err()
	}
}

// stop гасит движок и дожидается завершения Run.
func (e *engine) stop() {
	e.cancel()
	<-e.done
}

// alive сообщает, что Run ещё не завершился.
func (e *engine) alive() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// api возвращает RPC-интерфейс клиента.
func (e *engine) api() *tg.Client {
	return e.client.API()
}
