package telegram

// Классификация ошибок Telegram-слоя. Диспетчер бота различает их через
// errors.Is и показывает администратору осмысленные сообщения вместо сырых
// кодов API.

import (
	"telegram-copier/internal/infra/throttle"

	"github.com/go-faster/errors"

	"github.com/gotd/td/tgerr"
)

var (
	// ErrNoSavedSession — файла сессии нет, требуется логин.
	ErrNoSavedSession = errors.New("no saved session")
	// ErrInvalidSession — сохранённая или введённая сессия отклонена Telegram.
	ErrInvalidSession = errors.New("session is invalid or expired")
	// ErrAuthTimeout — администратор не прислал код/пароль за отведённое время.
	ErrAuthTimeout = errors.New("authentication timed out")
	// ErrPasswordNeeded — аккаунт защищён 2FA, нужен пароль.
	ErrPasswordNeeded = errors.New("two-factor password required")
	// ErrRemoteRejected — Telegram отклонил операцию логина по иной причине.
	ErrRemoteRejected = errors.New("telegram rejected the request")
	// ErrChannelNotFound — идентификатор не разрешился в канал.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrChannelAccessDenied — канал существует, но доступа к нему нет.
	ErrChannelAccessDenied = errors.New("channel access denied")
)

// FloodWaitExtractor распознаёт FLOOD_WAIT в ошибках gotd и возвращает
// серверную паузу. Регистрируется в троттлере при сборке приложения.
func FloodWaitExtractor() throttle.WaitExtractor {
	return tgerr.AsFloodWait
}

// mapResolveError переводит коды API разрешения каналов в доменные ошибки.
func mapResolveError(err error) error {
	switch {
	case err == nil:
		return nil
	case tgerr.Is(err, "USERNAME_NOT_OCCUPIED", "USERNAME_INVALID", "PEER_ID_INVALID"):
		return errors.Wrap(ErrChannelNotFound, err.Error())
	case tgerr.Is(err, "CHANNEL_PRIVATE", "CHANNEL_INVALID", "CHAT_ADMIN_REQUIRED"):
		return errors.Wrap(ErrChannelAccessDenied, err.Error())
	default:
		return err
	}
}
