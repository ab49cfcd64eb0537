// Package convo — конечный автомат диалога администратора и конфигурация
// задания копирования. Пакет не знает о Telegram: каналы представлены
// значением ChannelRef, а переходы между состояниями проверяются таблицей
// CanTransitionTo. Диспетчер бота трактует недопустимый переход как
// «неожиданное событие» и просто перерисовывает текущую панель.
package convo

import (
	"sync"

	"github.com/go-faster/errors"
)

// ChannelRef — разрешённый канал: идентификатор, access hash и название.
// Нулевой ID означает «канал ещё не выбран».
type ChannelRef struct {
	ID         int64
	AccessHash int64
	Title      string
}

// Zero сообщает, выбран ли канал.
func (r ChannelRef) Zero() bool { return r.ID == 0 }

// Ошибки валидации конфигурации задания.
var (
	ErrConfigIncomplete = errors.New("copy config is incomplete")
	ErrSameChannel      = errors.New("source and target are the same channel")
	ErrRangeInverted    = errors.New("range start is greater than range end")
)

// CopyConfig — накопленная конфигурация задания: откуда, куда и какой
// диапазон ID сообщений копировать. Диапазон включительный с обеих сторон.
type CopyConfig struct {
	Source  ChannelRef
	Target  ChannelRef
	StartID int
	EndID   int
}

// Complete сообщает, заданы ли все четыре параметра.
func (c CopyConfig) Complete() bool {
	return !c.Source.Zero() && !c.Target.Zero() && c.StartID > 0 && c.EndID > 0
}

// Validate проверяет конфигурацию перед запуском задания. Неполная
// конфигурация, совпадающие каналы и перевёрнутый диапазон отклоняются.
func (c CopyConfig) Validate() error {
	if !c.Complete() {
		return ErrConfigIncomplete
	}
	if c.Source.ID == c.Target.ID {
		return ErrSameChannel
	}
	if c.StartID > c.EndID {
		return ErrRangeInverted
	}
	return nil
}

// Conversation — диалог одного администратора. Потокобезопасен: обработчики
// бота выполняются в разных горутинах и могут касаться одного диалога.
type Conversation struct {
	userID int64

	mu     sync.Mutex
	state  State
	config CopyConfig
}

// UserID возвращает идентификатор администратора, которому принадлежит диалог.
func (c *Conversation) UserID() int64 { return c.userID }

// State возвращает текущее состояние диалога.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Config возвращает снимок конфигурации задания.
func (c *Conversation) Config() CopyConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Transition переводит диалог в состояние next, если переход допустим.
// Недопустимый переход возвращает ошибку и не меняет состояние.
func (c *Conversation) Transition(next State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == next {
		return nil
	}
	if !c.state.CanTransitionTo(next) {
		return errors.Errorf("transition %s -> %s is not allowed", c.state, next)
	}
	c.state = next
	return nil
}

// ForceIdle безусловно сбрасывает состояние в Idle, сохраняя конфигурацию.
// Используется после завершения задания и при восстановлении после ошибок.
func (c *Conversation) ForceIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
}

// UpdateConfig атомарно изменяет конфигурацию задания.
func (c *Conversation) UpdateConfig(fn func(*CopyConfig)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.config)
}

// ResetConfig очищает конфигурацию задания (кнопка «Сбросить»).
func (c *Conversation) ResetConfig() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = CopyConfig{}
}

// Registry — реестр диалогов по администраторам. Диалоги создаются лениво
// при первом обращении и живут до перезапуска процесса.
type Registry struct {
	mu     sync.Mutex
	byUser map[int64]*Conversation
}

// NewRegistry создаёт пустой реестр диалогов.
func NewRegistry() *Registry {
	return &Registry{byUser: make(map[int64]*Conversation)}
}

// Get возвращает диалог администратора, создавая его в StateIdle при первом
// обращении. Диалоги разных администраторов полностью независимы.
func (r *Registry) Get(userID int64) *Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.byUser[userID]
	if !ok {
		conv = &Conversation{userID: userID, state: StateIdle}
		r.byUser[userID] = conv
	}
	return conv
}
