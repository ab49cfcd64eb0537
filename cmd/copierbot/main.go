// Точка входа бота-копировщика. Загружает конфигурацию из .env, настраивает
// логирование (консоль плюс файл с ротацией) и запускает приложение либо,
// с флагом -login, терминальный вход для получения строки сессии.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"telegram-copier/internal/app"
	"telegram-copier/internal/infra/config"
	"telegram-copier/internal/infra/logger"
)

func main() {
	envPath := flag.String("env", ".env", "path to .env file")
	loginMode := flag.Bool("login", false, "interactive terminal login, then exit")
	flag.Parse()

	if err := config.Load(*envPath); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	env := config.Env()

	logger.Init(env.LogLevel)
	logger.InitFile(logger.FileOptions{
		Path:       env.LogFile,
		Level:      env.LogFileLevel,
		MaxSizeMB:  env.LogFileMaxSize,
		MaxBackups: env.LogFileMaxBackups,
		MaxAgeDays: env.LogFileMaxAge,
		Compress:   env.LogFileCompress,
	})
	for _, msg := range config.Warnings() {
		logger.Warn(msg)
	}

	// Ctrl+C и SIGTERM сворачивают приложение через отмену контекста.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, env, *loginMode); err != nil {
		stop()
		logger.Fatal("app run failed", zap.Error(err))
	}
	logger.Info("graceful shutdown complete")
}
