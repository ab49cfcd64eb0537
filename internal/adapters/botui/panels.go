package botui

// Тексты и inline-клавиатуры панелей бота. Панели — чистые функции от
// состояния диалога: их удобно проверять без Telegram.

import (
	"fmt"
	"strings"

	"telegram-copier/internal/domain/convo"
	"telegram-copier/internal/domain/copyjob"
	"telegram-copier/internal/domain/stats"

	"github.com/go-telegram/bot/models"
)

// Идентификаторы кнопок. Префикс определяет группу обработки.
const (
	btnLogin      = "menu:login"
	btnManual     = "menu:manual"
	btnConfigure  = "menu:configure"
	btnStats      = "menu:stats"
	btnBack       = "menu:back"
	btnSetSource  = "cfg:source"
	btnSetTarget  = "cfg:target"
	btnSetStart   = "cfg:start"
	btnSetEnd     = "cfg:end"
	btnRun        = "cfg:run"
	btnReset      = "cfg:reset"
	btnCancelJob  = "job:cancel"
	btnCopyAgain  = "job:again"
)

func row(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

func btn(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

func keyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// mainMenu — стартовая панель. Состав кнопок зависит от наличия живой сессии.
func mainMenu(authorized bool, who string) (string, *models.InlineKeyboardMarkup) {
	var b strings.Builder
	b.WriteString("📋 Копирование сообщений между каналами\n\n")
	if authorized {
		fmt.Fprintf(&b, "Сессия активна: %s\n\nВыберите действие:", who)
		return b.String(), keyboard(
			row(btn("⚙️ Настроить копирование", btnConfigure)),
			row(btn("📊 Статистика", btnStats)),
			row(btn("🔑 Войти заново", btnLogin), btn("📥 Ввести сессию", btnManual)),
		)
	}
	b.WriteString("Сессия не настроена. Войдите по номеру телефона или вставьте готовую строку сессии.")
	return b.String(), keyboard(
		row(btn("🔑 Войти по телефону", btnLogin)),
		row(btn("📥 Ввести строку сессии", btnManual)),
	)
}

// describeChannel печатает выбранный канал или заглушку.
func describeChannel(ref convo.ChannelRef) string {
	if ref.Zero() {
		return "не выбран"
	}
	return fmt.Sprintf("%s (id %d)", ref.Title, ref.ID)
}

func describeBound(id int) string {
	if id <= 0 {
		return "не задан"
	}
	return fmt.Sprintf("%d", id)
}

// configPanel — панель настройки задания с текущими значениями.
func configPanel(cfg convo.CopyConfig) (string, *models.InlineKeyboardMarkup) {
	var b strings.Builder
	b.WriteString("⚙️ Настройка копирования\n\n")
	fmt.Fprintf(&b, "Источник: %s\n", describeChannel(cfg.Source))
	fmt.Fprintf(&b, "Назначение: %s\n", describeChannel(cfg.Target))
	fmt.Fprintf(&b, "Первый ID: %s\n", describeBound(cfg.StartID))
	fmt.Fprintf(&b, "Последний ID: %s\n", describeBound(cfg.EndID))

	rows := [][]models.InlineKeyboardButton{
		row(btn("📤 Источник", btnSetSource), btn("📥 Назначение", btnSetTarget)),
		row(btn("🔢 Первый ID", btnSetStart), btn("🔢 Последний ID", btnSetEnd)),
	}
	if cfg.Validate() == nil {
		total := cfg.EndID - cfg.StartID + 1
		fmt.Fprintf(&b, "\nГотово к запуску: %d сообщений.", total)
		rows = append(rows, row(btn("🚀 Запустить", btnRun)))
	}
	rows = append(rows, row(btn("♻️ Сбросить", btnReset), btn("⬅️ В меню", btnBack)))
	return b.String(), keyboard(rows...)
}

// progressText — текст сообщения с ходом выполнения.
func progressText(p copyjob.Progress) string {
	return fmt.Sprintf(
		"⏳ Копирование: %d из %d\n✅ Скопировано: %d\n⚠️ Пропущено: %d\n❌ Ошибок: %d\n🕒 Прошло: %s\n⚡ Скорость: %.1f сообщ./сек",
		p.Counts.Visited(), p.Total,
		p.Counts.Succeeded, p.Counts.Skipped, p.Counts.Failed,
		copyjob.FormatElapsed(p.Elapsed), p.Throughput(),
	)
}

// progressKeyboard — клавиатура активного задания.
func progressKeyboard() *models.InlineKeyboardMarkup {
	return keyboard(row(btn("⛔ Остановить", btnCancelJob)))
}

// resultPanel — итог задания.
func resultPanel(res copyjob.Result) (string, *models.InlineKeyboardMarkup) {
	header := "✅ Копирование завершено"
	if res.Status == copyjob.StatusCancelled {
		header = "⛔ Копирование остановлено"
	}
	text := fmt.Sprintf(
		"%s\n\n✅ Скопировано: %d\n⚠️ Пропущено: %d\n❌ Ошибок: %d\n🕒 Время: %s\n⚡ Скорость: %.1f сообщ./сек",
		header,
		res.Counts.Succeeded, res.Counts.Skipped, res.Counts.Failed,
		copyjob.FormatElapsed(res.Elapsed), res.Throughput(),
	)
	kb := keyboard(
		row(btn("🔁 Повторить", btnCopyAgain), btn("⚙️ Настройки", btnConfigure)),
		row(btn("⬅️ В меню", btnBack)),
	)
	return text, kb
}

// statsText — накопленная статистика администратора.
func statsText(s stats.AdminStats) string {
	if s.JobsRun == 0 {
		return "📊 Статистика пуста: заданий ещё не было."
	}
	return fmt.Sprintf(
		"📊 Статистика\n\nЗаданий выполнено: %d (остановлено: %d)\nСкопировано сообщений: %d\nПропущено: %d\nОшибок: %d\nПоследний запуск: %s",
		s.JobsRun, s.JobsCancelled,
		s.MessagesCopied, s.MessagesSkipped, s.MessagesFailed,
		s.LastRunAt.Format("2006-01-02 15:04:05 UTC"),
	)
}

// prompts по состояниям ожидания текста.
func promptFor(state convo.State) string {
	switch state {
	case convo.StateAwaitingPhone:
		return "📱 Отправьте номер телефона в международном формате, например +79161234567."
	case convo.StateAwaitingCode:
		return "🔐 Отправьте код подтверждения из Telegram."
	case convo.StateAwaitingPassword:
		return "🔒 Аккаунт защищён двухфакторной аутентификацией. Отправьте пароль."
	case convo.StateAwaitingManualSession:
		return "📥 Вставьте строку сессии (base64)."
	case convo.StateConfiguringSource:
		return "📤 Отправьте канал-источник: @username, ссылку t.me или ID."
	case convo.StateConfiguringTarget:
		return "📥 Отправьте канал-назначение: @username, ссылку t.me или ID."
	case convo.StateConfiguringRangeStart:
		return "🔢 Отправьте ID первого сообщения, ссылку на него или диапазон вида 100-250."
	case convo.StateConfiguringRangeEnd:
		return "🔢 Отправьте ID последнего сообщения или ссылку на него."
	default:
		return ""
	}
}
