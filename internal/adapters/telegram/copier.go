package telegram

// Копирщик сообщений: реализация порта copyjob.Copier поверх RPC gotd.
// Сообщения воспроизводятся заново (текст и медиа по ссылке на файл),
// а не форвардятся — так содержимое попадает и в каналы с запретом пересылки,
// и без плашки «переслано из».

import (
	"context"
	"math/rand/v2"

	"telegram-copier/internal/domain/convo"
	"telegram-copier/internal/domain/copyjob"
	"telegram-copier/internal/infra/throttle"
	"telegram-copier/internal/support/debug"

	"github.com/go-faster/errors"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

// ChannelCopier переносит сообщения из source в target. Все RPC идут через
// общий троттлер приложения; флуд-паузы конвертируются в доменную
// RateLimitedError и обрабатываются циклом задания, а не троттлером.
type ChannelCopier struct {
	api       *tg.Client
	throttler *throttle.Throttler
	source    convo.ChannelRef
	target    convo.ChannelRef
	randID    func() int64
}

var _ copyjob.Copier = (*ChannelCopier)(nil)

// NewChannelCopier связывает копирщик с разрешёнными каналами задания.
func NewChannelCopier(api *tg.Client, throttler *throttle.Throttler, source, target convo.ChannelRef) *ChannelCopier {
	return &ChannelCopier{
		api:       api,
		throttler: throttler,
		source:    source,
		target:    target,
		randID:    rand.Int64,
	}
}

// Fetch читает сообщение источника по ID. Отсутствующие, сервисные и
// невоспроизводимые сообщения дают ErrMessageUnavailable (исход skipped).
func (c *ChannelCopier) Fetch(ctx context.Context, msgID int) (copyjob.Message, error) {
	var found *tg.Message

	err := c.throttler.Do(ctx, func() error {
		res, err := c.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
			Channel: c.inputChannel(c.source),
			ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: msgID}},
		})
		if err != nil {
			return fetchErr(err)
		}
		found = pickMessage(res, msgID)
		return nil
	})
	if err != nil {
		return copyjob.Message{}, err
	}

	if found == nil {
		return copyjob.Message{}, copyjob.ErrMessageUnavailable
	}
	debug.Dump("fetched message", found)
	if !reproducible(found) {
		return copyjob.Message{}, copyjob.ErrMessageUnavailable
	}
	return copyjob.Message{ID: msgID, Payload: found}, nil
}

// Send публикует сообщение в канал назначения.
func (c *ChannelCopier) Send(ctx context.Context, msg copyjob.Message) error {
	src, ok := msg.Payload.(*tg.Message)
	if !ok {
		return &copyjob.SendFailedError{Reason: "unexpected payload type"}
	}

	peer := &tg.InputPeerChannel{
		ChannelID:  c.target.ID,
		AccessHash: c.target.AccessHash,
	}

	return c.throttler.Do(ctx, func() error {
		var err error
		if media, hasMedia := referencedMedia(src); hasMedia {
			_, err = c.api.MessagesSendMedia(ctx, &tg.MessagesSendMediaRequest{
				Peer:     peer,
				Media:    media,
				Message:  src.Message,
				Entities: src.Entities,
				RandomID: c.randID(),
			})
		} else {
			_, err = c.api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
				Peer:     peer,
				Message:  src.Message,
				Entities: src.Entities,
				RandomID: c.randID(),
			})
		}
		if err == nil {
			return nil
		}
		return sendErr(err)
	})
}

func (c *ChannelCopier) inputChannel(ref convo.ChannelRef) *tg.InputChannel {
	return &tg.InputChannel{ChannelID: ref.ID, AccessHash: ref.AccessHash}
}

// floodOr переводит FLOOD_WAIT в доменную ошибку, прочее отдаёт как есть.
func floodOr(err error) error {
	if wait, ok := tgerr.AsFloodWait(err); ok {
		return &copyjob.RateLimitedError{Wait: wait}
	}
	return err
}

// fetchErr классифицирует ошибку чтения источника. Любая ошибка, кроме
// флуд-паузы и отмены контекста, заворачивается в неповторяемую
// FetchFailedError: повторять безнадёжный вызов троттлер не должен, исходом
// распоряжается цикл задания.
func fetchErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if fErr := floodOr(err); fErr != err {
		return fErr
	}
	return &copyjob.FetchFailedError{Reason: err.Error()}
}

// sendErr — та же классификация для отправки в назначение.
func sendErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if fErr := floodOr(err); fErr != err {
		return fErr
	}
	return &copyjob.SendFailedError{Reason: err.Error()}
}

// pickMessage находит в ответе полноценное сообщение с нужным ID.
func pickMessage(res tg.MessagesMessagesClass, msgID int) *tg.Message {
	var list []tg.MessageClass
	switch v := res.(type) {
	case *tg.MessagesChannelMessages:
		list = v.Messages
	case *tg.MessagesMessages:
		list = v.Messages
	default:
		return nil
	}

	for _, raw := range list {
		if m, ok := raw.(*tg.Message); ok && m.ID == msgID {
			return m
		}
	}
	return nil
}

// reproducible сообщает, можно ли воспроизвести сообщение в другом канале:
// нужен текст либо медиа, отправляемое по ссылке на файл. Сервисные
// сообщения и голые опросы/геопозиции не переносятся.
func reproducible(m *tg.Message) bool {
	if _, ok := referencedMedia(m); ok {
		return true
	}
	return m.Message != ""
}

// referencedMedia строит InputMedia по ссылке на уже загруженный файл.
// Возвращает false для сообщений без медиа и для типов, которые нельзя
// переотправить ссылкой (опросы, геопозиции, веб-превью).
func referencedMedia(m *tg.Message) (tg.InputMediaClass, bool) {
	switch media := m.Media.(type) {
	case *tg.MessageMediaPhoto:
		photo, ok := media.Photo.(*tg.Photo)
		if !ok {
			return nil, false
		}
		return &tg.InputMediaPhoto{
			ID: &tg.InputPhoto{
				ID:            photo.ID,
				AccessHash:    photo.AccessHash,
				FileReference: photo.FileReference,
			},
		}, true
	case *tg.MessageMediaDocument:
		doc, ok := media.Document.(*tg.Document)
		if !ok {
			return nil, false
		}
		return &tg.InputMediaDocument{
			ID: &tg.InputDocument{
				ID:            doc.ID,
				AccessHash:    doc.AccessHash,
				FileReference: doc.FileReference,
			},
		}, true
	default:
		return nil, false
	}
}
