// Package debug — переключаемые отладочные помощники: pretty-дамп структур
// Telegram API в консоль и записи в общий лог, которые молчат при DEBUG=false.
// На бизнес-логику пакет не влияет.
package debug

import (
	"telegram-copier/internal/infra/logger"
	"telegram-copier/internal/infra/pr"

	"go.uber.org/zap"
)

// DEBUG — глобальный переключатель. Прод-сборка запускается с false.
var DEBUG = false

// Dump pretty-печатает значение в консоль. Удобно для разглядывания ответов
// MTProto: tg.Message, tg.MessagesChannelMessages и подобных.
func Dump(label string, v any) {
	if !DEBUG {
		return
	}
	pr.Printf("--- %s ---\n", label)
	pr.PP(v)
}

// Debug пишет запись уровня Debug в общий лог только при активном DEBUG.
func Debug(msg string, fields ...zap.Field) {
	if DEBUG {
		logger.Logger().Debug(msg, fields...)
	}
}

// Info пишет информационную запись при активном DEBUG.
func Info(msg string, fields ...zap.Field) {
	if DEBUG {
		logger.Logger().Info(msg, fields...)
	}
}

// Warn пишет предупреждение при активном DEBUG.
func Warn(msg string, fields ...zap.Field) {
	if DEBUG {
		logger.Logger().Warn(msg, fields...)
	}
}
