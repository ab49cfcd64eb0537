package telegram

// Чат-ориентированный auth.UserAuthenticator: код и пароль приходят не из
// терминала, а из сообщений администратора боту. Обработчики диспетчера
// кладут ввод в каналы, а блокирующиеся методы gotd забирают его оттуда.

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// chatAuthenticator реализует auth.UserAuthenticator поверх каналов ввода.
// Сигнальные каналы codeRequested/passwordRequested закрываются при первом
// обращении gotd за кодом/паролем — по ним менеджер понимает, какой ввод
// запросить у администратора.
type chatAuthenticator struct {
	phone string

	codeCh chan string
	passCh chan string

	codeRequested     chan struct{}
	passwordRequested chan struct{}

	codeOnce sync.Once
	passOnce sync.Once
}

var _ auth.UserAuthenticator = (*chatAuthenticator)(nil)

func newChatAuthenticator(phone string) *chatAuthenticator {
	return &chatAuthenticator{
		phone:             phone,
		codeCh:            make(chan string, 1),
		passCh:            make(chan string, 1),
		codeRequested:     make(chan struct{}),
		passwordRequested: make(chan struct{}),
	}
}

// Phone возвращает номер, введённый администратором ранее.
func (a *chatAuthenticator) Phone(_ context.Context) (string, error) {
	return a.phone, nil
}

// Code блокируется до прихода кода из чата либо отмены контекста.
func (a *chatAuthenticator) Code(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	a.codeOnce.Do(func() { close(a.codeRequested) })
	select {
	case code := <-a.codeCh:
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Password блокируется до прихода пароля 2FA из чата либо отмены контекста.
func (a *chatAuthenticator) Password(ctx context.Context) (string, error) {
	a.passOnce.Do(func() { close(a.passwordRequested) })
	select {
	case password := <-a.passCh:
		return password, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// AcceptTermsOfService молча принимает условия: логин инициирован владельцем
// аккаунта сознательно.
func (a *chatAuthenticator) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

// SignUp отклоняется: бот работает только с существующими аккаунтами.
func (a *chatAuthenticator) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign up of new accounts is not supported")
}
