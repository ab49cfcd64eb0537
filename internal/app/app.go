// Package app собирает приложение: сессионный менеджер MTProto, хранилище
// статистики, ограничитель запросов и управляющий бот. Порядок остановки
// обратен порядку запуска, чтобы задания успели закрыться до гашения клиента.
package app

import (
	"context"
	"time"

	"telegram-copier/internal/adapters/botui"
	"telegram-copier/internal/adapters/cli"
	tgadapter "telegram-copier/internal/adapters/telegram"
	"telegram-copier/internal/domain/convo"
	"telegram-copier/internal/domain/stats"
	"telegram-copier/internal/infra/config"
	"telegram-copier/internal/infra/logger"
	"telegram-copier/internal/infra/telegram/session"
	"telegram-copier/internal/infra/throttle"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Run запускает приложение и блокируется до отмены ctx. В loginMode вместо
// бота выполняется терминальный вход и процесс завершается.
func Run(ctx context.Context, env config.EnvConfig, loginMode bool) error {
	store := session.NewStore(env.SessionFile)

	// Повторы в троттлере ограничены: неповторяемые ошибки копирования и так
	// классифицирует адаптер, а всё прочее не должно крутиться бесконечно.
	throttler := throttle.New(env.ThrottleRPS,
		throttle.WithMaxRetries(env.CopyMaxRetries),
		throttle.WithWaitExtractors(tgadapter.FloodWaitExtractor()))
	throttler.Start(ctx)
	defer throttler.Stop()

	mgr := tgadapter.NewManager(ctx, tgadapter.EngineConfig{
		APIID:       env.APIID,
		APIHash:     env.APIHash,
		ThrottleRPS: env.ThrottleRPS,
		TestDC:      env.TestDC,
	}, store, time.Duration(env.AuthTimeoutSec)*time.Second)
	defer mgr.Close()

	if loginMode {
		return cli.Login(ctx, mgr, store)
	}

	statsStore, err := stats.Open(env.StatsFile)
	if err != nil {
		return errors.Wrap(err, "open stats store")
	}
	defer func() {
		if err := statsStore.Close(); err != nil {
			logger.Warnf("close stats store: %v", err)
		}
	}()

	logger.Info("application starting",
		zap.String("session_file", env.SessionFile),
		zap.String("stats_file", env.StatsFile),
		zap.Int("throttle_rps", env.ThrottleRPS),
		zap.Bool("test_dc", env.TestDC))

	dispatcher := botui.New(env, convo.NewRegistry(), mgr, statsStore, throttler)
	return dispatcher.Start(ctx)
}
