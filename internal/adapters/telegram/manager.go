package telegram

// Менеджер пользовательской сессии: проверка сохранённой сессии, интерактивный
// логин через чат (телефон → код → пароль) и ручной ввод credential-строки.
// Держит единственный живой движок MTProto и пересоздаёт его при смене сессии,
// поскольку gotd читает файл сессии только на подключении.

import (
	"context"
	"time"

	"telegram-copier/internal/infra/logger"
	"telegram-copier/internal/infra/telegram/session"

	"github.com/go-faster/errors"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// Identity — краткие сведения о владельце сессии для показа в чате.
type Identity struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

func identityOf(u *tg.User) Identity {
	return Identity{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Manager управляет жизненным циклом пользовательского клиента.
// Все методы потокобезопасны; одновременно допустим один сценарий логина.
type Manager struct {
	cfg         EngineConfig
	store       *session.Store
	authTimeout time.Duration

	baseCtx context.Context // жизненный цикл приложения

	mu    chan struct{} // бинарный семафор вместо мьютекса: захват уважает ctx
	eng   *engine
	login *loginFlow
}

// loginFlow — состояние незавершённого интерактивного логина.
type loginFlow struct {
	auth   *chatAuthenticator
	cancel context.CancelFunc
	done   chan error // результат auth-сценария, ровно одно значение
}

// NewManager создаёт менеджер. baseCtx ограничивает жизнь движка MTProto.
func NewManager(baseCtx context.Context, cfg EngineConfig, store *session.Store, authTimeout time.Duration) *Manager {
	m := &Manager{
		cfg:         cfg,
		store:       store,
		authTimeout: authTimeout,
		baseCtx:     baseCtx,
		mu:          make(chan struct{}, 1),
	}
	m.mu <- struct{}{}
	return m
}

func (m *Manager) lock(ctx context.Context) error {
	select {
	case <-m.mu:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) unlock() {
	m.mu <- struct{}{}
}

// Close гасит движок. Вызывается при остановке приложения.
func (m *Manager) Close() {
	if err := m.lock(context.Background()); err != nil {
		return
	}
	defer m.unlock()
	m.abortLoginLocked()
	if m.eng != nil {
		m.eng.stop()
		m.eng = nil
	}
}

// API возвращает RPC-интерфейс живого клиента. Ошибка означает, что сессия
// ещё не поднята (нужен LoadExisting или логин).
func (m *Manager) API() (*tg.Client, error) {
	if err := m.lock(context.Background()); err != nil {
		return nil, err
	}
	defer m.unlock()
	if m.eng == nil || !m.eng.alive() {
		return nil, ErrNoSavedSession
	}
	return m.eng.api(), nil
}

// LoadExisting поднимает клиент на сохранённой сессии и проверяет её у
// Telegram. Отсутствие файла — ErrNoSavedSession; отклонённая сессия
// вычищается и возвращается ErrInvalidSession.
func (m *Manager) LoadExisting(ctx context.Context) (Identity, error) {
	if err := m.lock(ctx); err != nil {
		return Identity{}, err
	}
	defer m.unlock()

	if _, ok, err := m.store.Load(); err != nil {
		return Identity{}, err
	} else if !ok {
		return Identity{}, ErrNoSavedSession
	}

	if err := m.ensureEngineLocked(); err != nil {
		return Identity{}, err
	}
	return m.verifyAuthorizedLocked(ctx)
}

// BeginLogin начинает интерактивный вход: сбрасывает старую сессию, поднимает
// чистый движок и запускает auth-сценарий gotd с чат-аутентификатором.
// Возвращается, когда Telegram отправил код на номер (дальше SubmitCode).
func (m *Manager) BeginLogin(ctx context.Context, phone string) error {
	if err := m.lock(ctx); err != nil {
		return err
	}
	defer m.unlock()

	m.abortLoginLocked()
	if err := m.restartEngineCleanLocked(); err != nil {
		return err
	}

	flowCtx, cancel := context.WithCancel(m.baseCtx)
	login := &loginFlow{
		auth:   newChatAuthenticator(phone),
		cancel: cancel,
		done:   make(chan error, 1),
	}
	m.login = login

	client := m.eng.client
	go func() {
		flow := auth.NewFlow(login.auth, auth.SendCodeOptions{})
		login.done <- client.Auth().IfNecessary(flowCtx, flow)
	}()

	select {
	case <-login.auth.codeRequested:
		logger.Info("login code sent", zap.String("phone", phone))
		return nil
	case err := <-login.done:
		m.abortLoginLocked()
		if err == nil {
			// Сессия оказалась живой без кода — штатный, хоть и редкий исход.
			return nil
		}
		return errors.Wrap(ErrRemoteRejected, err.Error())
	case <-time.After(m.authTimeout):
		m.abortLoginLocked()
		return ErrAuthTimeout
	case <-ctx.Done():
		m.abortLoginLocked()
		return ctx.Err()
	}
}

// SubmitCode передаёт код подтверждения в ожидающий auth-сценарий.
// Если аккаунт защищён 2FA, возвращает ErrPasswordNeeded и ожидает
// SubmitPassword; сценарий при этом остаётся живым.
func (m *Manager) SubmitCode(ctx context.Context, code string) (Identity, error) {
	if err := m.lock(ctx); err != nil {
		return Identity{}, err
	}
	defer m.unlock()

	login := m.login
	if login == nil {
		return Identity{}, errors.Wrap(ErrRemoteRejected, "no login in progress")
	}

	select {
	case login.auth.codeCh <- code:
	default:
		return Identity{}, errors.Wrap(ErrRemoteRejected, "code already submitted")
	}

	select {
	case err := <-login.done:
		m.login = nil
		login.cancel()
		if err != nil {
			return Identity{}, errors.Wrap(ErrRemoteRejected, err.Error())
		}
		return m.verifyAuthorizedLocked(ctx)
	case <-login.auth.passwordRequested:
		return Identity{}, ErrPasswordNeeded
	case <-time.After(m.authTimeout):
		m.abortLoginLocked()
		return Identity{}, ErrAuthTimeout
	case <-ctx.Done():
		return Identity{}, ctx.Err()
	}
}

// SubmitPassword завершает вход для аккаунтов с 2FA.
func (m *Manager) SubmitPassword(ctx context.Context, password string) (Identity, error) {
	if err := m.lock(ctx); err != nil {
		return Identity{}, err
	}
	defer m.unlock()

	login := m.login
	if login == nil {
		return Identity{}, errors.Wrap(ErrRemoteRejected, "no login in progress")
	}

	select {
	case login.auth.passCh <- password:
	default:
		return Identity{}, errors.Wrap(ErrRemoteRejected, "password already submitted")
	}

	select {
	case err := <-login.done:
		m.login = nil
		login.cancel()
		if err != nil {
			return Identity{}, errors.Wrap(ErrRemoteRejected, err.Error())
		}
		return m.verifyAuthorizedLocked(ctx)
	case <-time.After(m.authTimeout):
		m.abortLoginLocked()
		return Identity{}, ErrAuthTimeout
	case <-ctx.Done():
		return Identity{}, ctx.Err()
	}
}

// UseManualString принимает готовую credential-строку: валидирует формат,
// подменяет файл сессии и проверяет её у Telegram. Отклонённая строка
// вычищается, чтобы не оставлять заведомо мёртвую сессию на диске.
func (m *Manager) UseManualString(ctx context.Context, credential string) (Identity, error) {
	if err := m.lock(ctx); err != nil {
		return Identity{}, err
	}
	defer m.unlock()

	raw, err := session.DecodeCredential(credential)
	if err != nil {
		return Identity{}, errors.Wrap(ErrInvalidSession, err.Error())
	}

	m.abortLoginLocked()
	m.stopEngineLocked()
	if err := m.store.Save(session.EncodeCredential(raw)); err != nil {
		return Identity{}, err
	}
	if err := m.ensureEngineLocked(); err != nil {
		return Identity{}, err
	}

	ident, err := m.verifyAuthorizedLocked(ctx)
	if errors.Is(err, ErrInvalidSession) {
		if clearErr := m.store.Clear(); clearErr != nil {
			logger.Warnf("clear rejected session: %v", clearErr)
		}
		m.stopEngineLocked()
	}
	return ident, err
}

// verifyAuthorizedLocked спрашивает у Telegram статус авторизации и self.
func (m *Manager) verifyAuthorizedLocked(ctx context.Context) (Identity, error) {
	client := m.eng.client

	status, err := client.Auth().Status(ctx)
	if err != nil {
		return Identity{}, errors.Wrap(ErrRemoteRejected, err.Error())
	}
	if !status.Authorized {
		return Identity{}, ErrInvalidSession
	}
	self, err := client.Self(ctx)
	if err != nil {
		return Identity{}, errors.Wrap(ErrRemoteRejected, err.Error())
	}

	logger.Info("session verified",
		zap.Int64("user_id", self.ID),
		zap.String("username", self.Username))
	return identityOf(self), nil
}

func (m *Manager) ensureEngineLocked() error {
	if m.eng != nil && m.eng.alive() {
		return nil
	}
	eng, err := startEngine(m.baseCtx, m.cfg, m.store)
	if err != nil {
		return err
	}
	m.eng = eng
	return nil
}

func (m *Manager) stopEngineLocked() {
	if m.eng != nil {
		m.eng.stop()
		m.eng = nil
	}
}

// restartEngineCleanLocked сбрасывает файл сессии и поднимает движок заново:
// логин должен начинаться с чистого состояния.
func (m *Manager) restartEngineCleanLocked() error {
	m.stopEngineLocked()
	if err := m.store.Clear(); err != nil {
		return err
	}
	return m.ensureEngineLocked()
}

func (m *Manager) abortLoginLocked() {
	if m.login != nil {
		m.login.cancel()
		m.login = nil
	}
}
