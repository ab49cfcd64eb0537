// Package session хранит учётные данные MTProto-сессии на диске.
// Формат файла — JSON с двумя полями: credential (base64 от «сырых» данных
// сессии gotd) и updated_at (момент последнего сохранения). Та же строка
// credential принимается при ручном вводе сессии в чате, поэтому форматы
// файла и пользовательского ввода совпадают по построению.
//
// Отсутствие или нечитаемость файла — штатная ситуация (первый запуск,
// повреждение), а не ошибка: Load сообщает об этом флагом присутствия.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"telegram-copier/internal/infra/logger"
	"telegram-copier/internal/infra/storage"

	"github.com/go-faster/errors"

	tdsession "github.com/gotd/td/session"
)

// envelope — формат файла сессии на диске.
type envelope struct {
	Credential string    `json:"credential"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store — файловое хранилище credential-строки. Потокобезопасен.
type Store struct {
	Path string
	mux  sync.Mutex
}

// NewStore создаёт хранилище над указанным путём файла.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load читает credential из файла. Второй результат — признак присутствия:
// отсутствующий, пустой или повреждённый файл возвращают ("", false, nil).
// Ошибкой считаются только проблемы ввода-вывода, отличные от «файла нет».
func (s *Store) Load() (string, bool, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "read session file")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.Warnf("session: file %s is malformed, treating as absent: %v", s.Path, err)
		return "", false, nil
	}
	cred := strings.TrimSpace(env.Credential)
	if cred == "" {
		return "", false, nil
	}
	return cred, true, nil
}

// Save атомарно записывает credential с текущей меткой времени.
func (s *Store) Save(credential string) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	data, err := json.MarshalIndent(envelope{
		Credential: credential,
		UpdatedAt:  time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal session envelope")
	}
	if err := storage.AtomicWriteFile(s.Path, data); err != nil {
		return errors.Wrap(err, "write session file")
	}
	return nil
}

// Clear удаляет файл сессии. Отсутствие файла не считается ошибкой, поэтому
// после Clear последующий Load гарантированно сообщает «сессии нет».
func (s *Store) Clear() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove session file")
	}
	return nil
}

// EncodeCredential переводит «сырые» данные сессии gotd в credential-строку.
func EncodeCredential(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeCredential разбирает credential-строку обратно в данные сессии.
// Строка с посторонними символами или пустая считается некорректной.
func DecodeCredential(credential string) ([]byte, error) {
	trimmed := strings.TrimSpace(credential)
	if trimmed == "" {
		return nil, errors.New("empty session credential")
	}
	raw, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, errors.Wrap(err, "decode session credential")
	}
	if len(raw) == 0 {
		return nil, errors.New("session credential decodes to nothing")
	}
	return raw, nil
}

// TDStorage адаптирует Store под tdsession.Storage, чтобы движок gotd
// персистировал перевыпуски ключей через тот же файл, что и логин.
type TDStorage struct {
	Store *Store
}

var _ tdsession.Storage = (*TDStorage)(nil)

// LoadSession отдаёт движку gotd декодированные данные сессии.
func (t *TDStorage) LoadSession(_ context.Context) ([]byte, error) {
	if t == nil || t.Store == nil {
		return nil, errors.New("nil session storage is invalid")
	}
	cred, ok, err := t.Store.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, tdsession.ErrNotFound
	}
	raw, err := DecodeCredential(cred)
	if err != nil {
		// Повреждённый credential эквивалентен отсутствию сессии.
		logger.Warnf("session: stored credential is not decodable: %v", err)
		return nil, tdsession.ErrNotFound
	}
	return raw, nil
}

// StoreSession сохраняет данные сессии, пришедшие от движка gotd.
func (t *TDStorage) StoreSession(_ context.Context, data []byte) error {
	if t == nil || t.Store == nil {
		return errors.New("nil session storage is invalid")
	}
	return t.Store.Save(EncodeCredential(data))
}
