package convo

// State — положение диалога администратора с ботом. Каждый администратор
// ведёт собственный диалог; состояния определяют, как трактовать следующий
// текст или нажатие кнопки.
type State int

const (
	// StateIdle — главное меню, никакой ввод не ожидается.
	StateIdle State = iota
	// StateAwaitingPhone — ожидается номер телефона для логина.
	StateAwaitingPhone
	// StateAwaitingCode — ожидается код подтверждения из Telegram.
	StateAwaitingCode
	// StateAwaitingPassword — ожидается пароль двухфакторной аутентификации.
	StateAwaitingPassword
	// StateAwaitingManualSession — ожидается готовая credential-строка сессии.
	StateAwaitingManualSession
	// StateConfiguringSource — ожидается идентификатор канала-источника.
	StateConfiguringSource
	// StateConfiguringTarget — ожидается идентификатор канала-назначения.
	StateConfiguringTarget
	// StateConfiguringRangeStart — ожидается ID первого сообщения диапазона.
	StateConfiguringRangeStart
	// StateConfiguringRangeEnd — ожидается ID последнего сообщения диапазона.
	StateConfiguringRangeEnd
	// StateReadyToCopy — конфигурация полна, можно запускать копирование.
	StateReadyToCopy
	// StateCopyInProgress — задание выполняется.
	StateCopyInProgress
	// StateCopyComplete — задание завершено, показан итог.
	StateCopyComplete
)

// String возвращает машинное имя состояния для логов.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingPhone:
		return "awaiting_phone"
	case StateAwaitingCode:
		return "awaiting_code"
	case StateAwaitingPassword:
		return "awaiting_password"
	case StateAwaitingManualSession:
		return "awaiting_manual_session"
	case StateConfiguringSource:
		return "configuring_source"
	case StateConfiguringTarget:
		return "configuring_target"
	case StateConfiguringRangeStart:
		return "configuring_range_start"
	case StateConfiguringRangeEnd:
		return "configuring_range_end"
	case StateReadyToCopy:
		return "ready_to_copy"
	case StateCopyInProgress:
		return "copy_in_progress"
	case StateCopyComplete:
		return "copy_complete"
	default:
		return "unknown"
	}
}

// AwaitsText сообщает, ждёт ли состояние текстового ввода от администратора.
func (s State) AwaitsText() bool {
	switch s {
	case StateAwaitingPhone, StateAwaitingCode, StateAwaitingPassword,
		StateAwaitingManualSession, StateConfiguringSource, StateConfiguringTarget,
		StateConfiguringRangeStart, StateConfiguringRangeEnd:
		return true
	default:
		return false
	}
}

// configuring объединяет состояния настройки задания: между ними разрешены
// свободные переходы (кнопки панели настройки доступны в любом порядке).
func (s State) configuring() bool {
	switch s {
	case StateConfiguringSource, StateConfiguringTarget,
		StateConfiguringRangeStart, StateConfiguringRangeEnd:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода s → next.
// Возврат в StateIdle (сброс/отмена) разрешён из любого состояния, кроме
// активного задания: оно завершается только через StateCopyComplete.
func (s State) CanTransitionTo(next State) bool {
	if next == StateIdle {
		return s != StateCopyInProgress
	}

	switch {
	case s == StateIdle:
		// StateReadyToCopy напрямую из меню: конфигурация прошлого задания
		// сохраняется в диалоге и может быть полной.
		return next == StateAwaitingPhone || next == StateAwaitingManualSession ||
			next.configuring() || next == StateReadyToCopy
	case s == StateAwaitingPhone:
		return next == StateAwaitingCode
	case s == StateAwaitingCode:
		return next == StateAwaitingPassword
	case s == StateAwaitingPassword, s == StateAwaitingManualSession:
		return false
	case s.configuring():
		return next.configuring() || next == StateReadyToCopy
	case s == StateReadyToCopy:
		return next.configuring() || next == StateCopyInProgress
	case s == StateCopyInProgress:
		return next == StateCopyComplete
	case s == StateCopyComplete:
		return next.configuring() || next == StateReadyToCopy || next == StateCopyInProgress
	default:
		return false
	}
}
