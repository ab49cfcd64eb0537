package telegram

// Разрешение каналов по пользовательскому вводу: @username, ссылка t.me,
// числовой ID (включая форму -100…). Кэширования нет: операция выполняется
// на каждую настройку задания, и свежий access hash важнее экономии запроса.

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"telegram-copier/internal/domain/convo"

	"github.com/go-faster/errors"

	"github.com/gotd/td/tg"
)

var (
	channelUsernameRe = regexp.MustCompile(`^@?([A-Za-z][A-Za-z0-9_]{2,31})$`)
	channelLinkRe     = regexp.MustCompile(`^(?:https?://)?(?:www\.)?t\.me/([A-Za-z][A-Za-z0-9_]{2,31})/?$`)
	channelNumericRe  = regexp.MustCompile(`^-?\d+$`)
)

// Caps — что доступно текущему аккаунту в разрешённом канале.
type Caps struct {
	// CanPost — можно ли публиковать: для broadcast-каналов требуется право
	// постинга, супергруппы считаются доступными (проверка best-effort,
	// фактический отказ всё равно придёт на первой отправке).
	CanPost bool
}

// Resolver разрешает идентификаторы каналов через RPC-интерфейс.
type Resolver struct {
	api *tg.Client
}

// NewResolver создаёт резолвер над готовым RPC-интерфейсом.
func NewResolver(api *tg.Client) *Resolver {
	return &Resolver{api: api}
}

// Resolve переводит ввод администратора в ссылку на канал.
// Нераспознанный формат и разрешение в «не канал» дают ErrChannelNotFound,
// приватность/отзыв доступа — ErrChannelAccessDenied.
func (r *Resolver) Resolve(ctx context.Context, input string) (convo.ChannelRef, Caps, error) {
	trimmed := strings.TrimSpace(input)

	if m := channelLinkRe.FindStringSubmatch(trimmed); m != nil {
		return r.byUsername(ctx, m[1])
	}
	if channelNumericRe.MatchString(trimmed) {
		return r.byID(ctx, trimmed)
	}
	if m := channelUsernameRe.FindStringSubmatch(trimmed); m != nil {
		return r.byUsername(ctx, m[1])
	}
	return convo.ChannelRef{}, Caps{}, errors.Wrapf(ErrChannelNotFound, "unrecognized identifier %q", input)
}

func (r *Resolver) byUsername(ctx context.Context, username string) (convo.ChannelRef, Caps, error) {
	res, err := r.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		return convo.ChannelRef{}, Caps{}, mapResolveError(err)
	}

	for _, chat := range res.Chats {
		if ch, ok := chat.(*tg.Channel); ok {
			return channelRef(ch), capsOf(ch), nil
		}
	}
	// Username разрешился в пользователя или обычный чат.
	return convo.ChannelRef{}, Caps{}, errors.Wrapf(ErrChannelNotFound, "@%s is not a channel", username)
}

func (r *Resolver) byID(ctx context.Context, raw string) (convo.ChannelRef, Caps, error) {
	id, err := parseChannelID(raw)
	if err != nil {
		return convo.ChannelRef{}, Caps{}, err
	}

	res, err := r.api.ChannelsGetChannels(ctx, []tg.InputChannelClass{
		&tg.InputChannel{ChannelID: id},
	})
	if err != nil {
		return convo.ChannelRef{}, Caps{}, mapResolveError(err)
	}

	for _, chat := range res.GetChats() {
		if ch, ok := chat.(*tg.Channel); ok && ch.ID == id {
			return channelRef(ch), capsOf(ch), nil
		}
	}
	return convo.ChannelRef{}, Caps{}, errors.Wrapf(ErrChannelNotFound, "channel %d not in response", id)
}

// parseChannelID нормализует числовой ввод: форма -100<id> из клиентов
// Telegram сводится к внутреннему ID канала.
func parseChannelID(raw string) (int64, error) {
	if rest, ok := strings.CutPrefix(raw, "-100"); ok && rest != "" {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			return 0, errors.Wrapf(ErrChannelNotFound, "invalid channel id %q", raw)
		}
		return id, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Wrapf(ErrChannelNotFound, "invalid channel id %q", raw)
	}
	if id < 0 {
		id = -id
	}
	return id, nil
}

func channelRef(ch *tg.Channel) convo.ChannelRef {
	return convo.ChannelRef{
		ID:         ch.ID,
		AccessHash: ch.AccessHash,
		Title:      ch.Title,
	}
}

func capsOf(ch *tg.Channel) Caps {
	if !ch.Broadcast || ch.Creator {
		return Caps{CanPost: true}
	}
	if rights, ok := ch.GetAdminRights(); ok && rights.PostMessages {
		return Caps{CanPost: true}
	}
	return Caps{CanPost: false}
}
