package botui

// Редактор сообщения с прогрессом. Bot API не любит частые edit одного
// сообщения, поэтому промежуточные обновления прореживаются rate-лимитером;
// финальное обновление проходит всегда.

import (
	"context"
	"time"

	"telegram-copier/internal/infra/logger"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

type progressEditor struct {
	bot       *tgbot.Bot
	chatID    int64
	messageID int
	limiter   *rate.Limiter
}

// newProgressEditor отправляет первичное сообщение прогресса и возвращает
// редактор для его последующих правок.
func newProgressEditor(ctx context.Context, bot *tgbot.Bot, chatID int64, text string, minInterval time.Duration) (*progressEditor, error) {
	msg, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: progressKeyboard(),
	})
	if err != nil {
		return nil, err
	}
	return &progressEditor{
		bot:       bot,
		chatID:    chatID,
		messageID: msg.ID,
		limiter:   rate.NewLimiter(rate.Every(minInterval), 1),
	}, nil
}

// Update правит сообщение прогресса, если лимитер разрешает.
func (p *progressEditor) Update(ctx context.Context, text string) {
	if !p.limiter.Allow() {
		return
	}
	p.edit(ctx, text, progressKeyboard())
}

// Finish безусловно заменяет сообщение финальным текстом и клавиатурой.
func (p *progressEditor) Finish(ctx context.Context, text string, kb *models.InlineKeyboardMarkup) {
	p.edit(ctx, text, kb)
}

func (p *progressEditor) edit(ctx context.Context, text string, kb *models.InlineKeyboardMarkup) {
	_, err := p.bot.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:      p.chatID,
		MessageID:   p.messageID,
		Text:        text,
		ReplyMarkup: kb,
	})
	if err != nil {
		logger.Debugf("progress edit failed: %v", err)
	}
}
