// Package botui — управляющий бот: панели с inline-кнопками, маршрутизация
// нажатий и текстового ввода по состоянию диалога, запуск и остановка заданий
// копирования. Единственная проверка доступа — список администраторов из
// конфигурации: обновления от посторонних игнорируются без ответа.
package botui

import (
	"context"
	"sync"
	"time"

	tgadapter "telegram-copier/internal/adapters/telegram"
	"telegram-copier/internal/domain/convo"
	"telegram-copier/internal/domain/copyjob"
	"telegram-copier/internal/domain/stats"
	"telegram-copier/internal/infra/config"
	"telegram-copier/internal/infra/logger"
	"telegram-copier/internal/infra/throttle"

	"github.com/go-faster/errors"
	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Dispatcher связывает Bot API с доменом: диалогами, менеджером сессии и
// заданиями копирования.
type Dispatcher struct {
	env       config.EnvConfig
	registry  *convo.Registry
	sessions  *tgadapter.Manager
	stats     *stats.Store
	throttler *throttle.Throttler

	bot    *tgbot.Bot
	appCtx context.Context

	mu         sync.Mutex
	jobs       map[int64]*activeJob // администратор → выполняющееся задание
	authorized bool
	who        string
}

// activeJob — выполняющееся задание и редактор его сообщения прогресса.
type activeJob struct {
	job    *copyjob.Job
	editor *progressEditor
}

// New собирает диспетчер. Бот создаётся в Start.
func New(env config.EnvConfig, registry *convo.Registry, sessions *tgadapter.Manager, statsStore *stats.Store, throttler *throttle.Throttler) *Dispatcher {
	return &Dispatcher{
		env:       env,
		registry:  registry,
		sessions:  sessions,
		stats:     statsStore,
		throttler: throttler,
		jobs:      make(map[int64]*activeJob),
	}
}

// Start создаёт бота, пытается поднять сохранённую сессию и входит в цикл
// long polling. Блокируется до отмены ctx.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.appCtx = ctx

	b, err := tgbot.New(d.env.BotToken, tgbot.WithDefaultHandler(d.onText))
	if err != nil {
		return errors.Wrap(err, "create bot")
	}
	d.bot = b

	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, d.onStartCmd)
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/cancel", tgbot.MatchTypeExact, d.onCancelCmd)
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/stop", tgbot.MatchTypeExact, d.onCancelCmd)
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/stats", tgbot.MatchTypeExact, d.onStatsCmd)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, "menu:", tgbot.MatchTypePrefix, d.onCallback)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, "cfg:", tgbot.MatchTypePrefix, d.onCallback)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, "job:", tgbot.MatchTypePrefix, d.onCallback)

	d.tryLoadSession(ctx)

	logger.Info("bot dispatcher started", zap.Int("admins", len(d.env.AdminIDs)))
	b.Start(ctx)
	return nil
}

// tryLoadSession проверяет сохранённую сессию на старте; отсутствие — норма.
func (d *Dispatcher) tryLoadSession(ctx context.Context) {
	ident, err := d.sessions.LoadExisting(ctx)
	switch {
	case err == nil:
		d.setIdentity(ident)
		logger.Info("saved session loaded", zap.Int64("user_id", ident.ID))
	case errors.Is(err, tgadapter.ErrNoSavedSession):
		logger.Info("no saved session, waiting for login via chat")
	case errors.Is(err, tgadapter.ErrInvalidSession):
		logger.Warn("saved session rejected by telegram")
	default:
		logger.Errorf("session check failed: %v", err)
	}
}

func (d *Dispatcher) setIdentity(ident tgadapter.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.authorized = true
	name := ident.FirstName
	if ident.Username != "" {
		name = "@" + ident.Username
	}
	d.who = name
}

func (d *Dispatcher) identity() (bool, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.authorized, d.who
}

// --- входящие обновления ---

func (d *Dispatcher) onStartCmd(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	userID, chatID, ok := d.adminMessage(update)
	if !ok {
		return
	}
	d.registry.Get(userID).ForceIdle()
	d.sendMainMenu(ctx, chatID)
}

func (d *Dispatcher) onCancelCmd(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	userID, chatID, ok := d.adminMessage(update)
	if !ok {
		return
	}
	d.cancelFor(ctx, userID, chatID)
}

func (d *Dispatcher) onStatsCmd(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	userID, chatID, ok := d.adminMessage(update)
	if !ok {
		return
	}
	d.sendStats(ctx, userID, chatID)
}

// onCallback обрабатывает нажатия кнопок. Каждое нажатие подтверждается,
// чтобы у администратора не «крутился» индикатор.
func (d *Dispatcher) onCallback(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil || !d.env.IsAdmin(cb.From.ID) {
		return
	}
	_, _ = b.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID})

	userID := cb.From.ID
	chatID := userID
	if cb.Message.Message != nil {
		chatID = cb.Message.Message.Chat.ID
	}
	conv := d.registry.Get(userID)

	switch cb.Data {
	case btnLogin:
		d.promptState(ctx, conv, chatID, convo.StateAwaitingPhone)
	case btnManual:
		d.promptState(ctx, conv, chatID, convo.StateAwaitingManualSession)
	case btnConfigure:
		d.openConfig(ctx, conv, chatID)
	case btnBack:
		conv.ForceIdle()
		d.sendMainMenu(ctx, chatID)
	case btnStats:
		d.sendStats(ctx, userID, chatID)
	case btnSetSource:
		d.promptState(ctx, conv, chatID, convo.StateConfiguringSource)
	case btnSetTarget:
		d.promptState(ctx, conv, chatID, convo.StateConfiguringTarget)
	case btnSetStart:
		d.promptState(ctx, conv, chatID, convo.StateConfiguringRangeStart)
	case btnSetEnd:
		d.promptState(ctx, conv, chatID, convo.StateConfiguringRangeEnd)
	case btnReset:
		conv.ResetConfig()
		d.openConfig(ctx, conv, chatID)
	case btnRun, btnCopyAgain:
		d.runJob(ctx, conv, chatID)
	case btnCancelJob:
		d.cancelFor(ctx, userID, chatID)
	default:
		logger.Debugf("unknown callback data: %s", cb.Data)
	}
}

// onText — ввод без команды: трактуется по текущему состоянию диалога.
// Неожиданный текст просто перерисовывает актуальную панель.
func (d *Dispatcher) onText(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	userID, chatID, ok := d.adminMessage(update)
	if !ok {
		return
	}
	text := update.Message.Text
	conv := d.registry.Get(userID)

	switch conv.State() {
	case convo.StateAwaitingPhone:
		d.handlePhone(ctx, conv, chatID, text)
	case convo.StateAwaitingCode:
		d.handleCode(ctx, conv, chatID, text)
	case convo.StateAwaitingPassword:
		d.handlePassword(ctx, conv, chatID, text)
	case convo.StateAwaitingManualSession:
		d.handleManualSession(ctx, conv, chatID, text)
	case convo.StateConfiguringSource:
		d.handleChannelInput(ctx, conv, chatID, text, true)
	case convo.StateConfiguringTarget:
		d.handleChannelInput(ctx, conv, chatID, text, false)
	case convo.StateConfiguringRangeStart:
		d.handleRangeStart(ctx, conv, chatID, text)
	case convo.StateConfiguringRangeEnd:
		d.handleRangeEnd(ctx, conv, chatID, text)
	case convo.StateCopyInProgress:
		d.send(ctx, chatID, "⏳ Задание выполняется. Остановить — кнопкой или командой /stop.", nil)
	default:
		d.sendMainMenu(ctx, chatID)
	}
}

// adminMessage извлекает автора и чат из текстового обновления и проверяет
// allow-list. Посторонние обновления игнорируются молча.
func (d *Dispatcher) adminMessage(update *models.Update) (userID, chatID int64, ok bool) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return 0, 0, false
	}
	if !d.env.IsAdmin(msg.From.ID) {
		logger.Debug("update from non-admin ignored", zap.Int64("user_id", msg.From.ID))
		return 0, 0, false
	}
	return msg.From.ID, msg.Chat.ID, true
}

// --- сценарий логина ---

func (d *Dispatcher) handlePhone(ctx context.Context, conv *convo.Conversation, chatID int64, text string) {
	phone, err := convo.ValidatePhone(text)
	if err != nil {
		d.send(ctx, chatID, "⚠️ Некорректный номер. Формат: +79161234567.", nil)
		return
	}

	d.send(ctx, chatID, "⏳ Запрашиваю код у Telegram...", nil)
	if err := d.sessions.BeginLogin(ctx, phone); err != nil {
		d.reportAuthError(ctx, conv, chatID, err)
		return
	}
	if err := conv.Transition(convo.StateAwaitingCode); err != nil {
		logger.Warnf("transition: %v", err)
	}
	d.send(ctx, chatID, promptFor(convo.StateAwaitingCode), nil)
}

func (d *Dispatcher) handleCode(ctx context.Context, conv *convo.Conversation, chatID int64, text string) {
	ident, err := d.sessions.SubmitCode(ctx, text)
	if errors.Is(err, tgadapter.ErrPasswordNeeded) {
		if tErr := conv.Transition(convo.StateAwaitingPassword); tErr != nil {
			logger.Warnf("transition: %v", tErr)
		}
		d.send(ctx, chatID, promptFor(convo.StateAwaitingPassword), nil)
		return
	}
	if err != nil {
		d.reportAuthError(ctx, conv, chatID, err)
		return
	}
	d.finishLogin(ctx, conv, chatID, ident)
}

func (d *Dispatcher) handlePassword(ctx context.Context, conv *convo.Conversation, chatID int64, text string) {
	ident, err := d.sessions.SubmitPassword(ctx, text)
	if err != nil {
		d.reportAuthError(ctx, conv, chatID, err)
		return
	}
	d.finishLogin(ctx, conv, chatID, ident)
}

func (d *Dispatcher) handleManualSession(ctx context.Context, conv *convo.Conversation, chatID int64, text string) {
	ident, err := d.sessions.UseManualString(ctx, text)
	if err != nil {
		d.reportAuthError(ctx, conv, chatID, err)
		return
	}
	d.finishLogin(ctx, conv, chatID, ident)
}

func (d *Dispatcher) finishLogin(ctx context.Context, conv *convo.Conversation, chatID int64, ident tgadapter.Identity) {
	d.setIdentity(ident)
	conv.ForceIdle()
	d.send(ctx, chatID, "✅ Сессия сохранена.", nil)
	d.sendMainMenu(ctx, chatID)
}

// reportAuthError переводит доменные ошибки логина в сообщения администратору.
func (d *Dispatcher) reportAuthError(ctx context.Context, conv *convo.Conversation, chatID int64, err error) {
	conv.ForceIdle()
	var text string
	switch {
	case errors.Is(err, tgadapter.ErrAuthTimeout):
		text = "⌛ Время ожидания истекло. Начните вход заново."
	case errors.Is(err, tgadapter.ErrInvalidSession):
		text = "⚠️ Строка сессии не принята Telegram."
	case errors.Is(err, tgadapter.ErrRemoteRejected):
		text = "❌ Telegram отклонил запрос: " + err.Error()
	default:
		text = "❌ Ошибка входа: " + err.Error()
	}
	logger.Warn("login failed", zap.Error(err))
	d.send(ctx, chatID, text, nil)
	d.sendMainMenu(ctx, chatID)
}

// --- настройка задания ---

func (d *Dispatcher) openConfig(ctx context.Context, conv *convo.Conversation, chatID int64) {
	if err := conv.Transition(d.nextConfigState(conv.Config())); err != nil {
		logger.Warnf("transition: %v", err)
	}
	text, kb := configPanel(conv.Config())
	d.send(ctx, chatID, text, kb)
	if hint := configHint(conv.Config()); hint != "" {
		d.send(ctx, chatID, hint, nil)
	}
}

// nextConfigState выбирает, какой параметр запрашивать следующим.
// StateReadyToCopy достижимо только для полной И валидной конфигурации:
// совпадающие каналы и перевёрнутый диапазон возвращают диалог к
// соответствующему шагу настройки.
func (d *Dispatcher) nextConfigState(cfg convo.CopyConfig) convo.State {
	switch {
	case cfg.Source.Zero():
		return convo.StateConfiguringSource
	case cfg.Target.Zero():
		return convo.StateConfiguringTarget
	case cfg.StartID <= 0:
		return convo.StateConfiguringRangeStart
	case cfg.EndID <= 0:
		return convo.StateConfiguringRangeEnd
	}

	switch err := cfg.Validate(); {
	case errors.Is(err, convo.ErrSameChannel):
		return convo.StateConfiguringTarget
	case errors.Is(err, convo.ErrRangeInverted):
		return convo.StateConfiguringRangeEnd
	default:
		return convo.StateReadyToCopy
	}
}

// configHint объясняет, почему полная конфигурация ещё не готова к запуску.
func configHint(cfg convo.CopyConfig) string {
	if cfg.Source.Zero() || cfg.Target.Zero() || cfg.StartID <= 0 || cfg.EndID <= 0 {
		return ""
	}
	switch err := cfg.Validate(); {
	case errors.Is(err, convo.ErrSameChannel):
		return "⚠️ Источник и назначение совпадают — выберите другой канал назначения."
	case errors.Is(err, convo.ErrRangeInverted):
		return "⚠️ Первый ID больше последнего — задайте границы заново."
	default:
		return ""
	}
}

func (d *Dispatcher) promptState(ctx context.Context, conv *convo.Conversation, chatID int64, state convo.State) {
	if err := conv.Transition(state); err != nil {
		// Неожиданное нажатие: показываем актуальную панель вместо ошибки.
		logger.Debugf("rejected transition: %v", err)
		d.renderCurrent(ctx, conv, chatID)
		return
	}
	d.send(ctx, chatID, promptFor(state), nil)
}

func (d *Dispatcher) renderCurrent(ctx context.Context, conv *convo.Conversation, chatID int64) {
	switch conv.State() {
	case convo.StateConfiguringSource, convo.StateConfiguringTarget,
		convo.StateConfiguringRangeStart, convo.StateConfiguringRangeEnd,
		convo.StateReadyToCopy:
		text, kb := configPanel(conv.Config())
		d.send(ctx, chatID, text, kb)
	default:
		d.sendMainMenu(ctx, chatID)
	}
}

func (d *Dispatcher) handleChannelInput(ctx context.Context, conv *convo.Conversation, chatID int64, text string, isSource bool) {
	api, err := d.sessions.API()
	if err != nil {
		d.send(ctx, chatID, "⚠️ Сначала настройте сессию: войдите по телефону или вставьте строку сессии.", nil)
		conv.ForceIdle()
		d.sendMainMenu(ctx, chatID)
		return
	}

	ref, caps, err := tgadapter.NewResolver(api).Resolve(ctx, text)
	switch {
	case errors.Is(err, tgadapter.ErrChannelNotFound):
		d.send(ctx, chatID, "⚠️ Канал не найден. Проверьте @username, ссылку или ID.", nil)
		return
	case errors.Is(err, tgadapter.ErrChannelAccessDenied):
		d.send(ctx, chatID, "⚠️ Нет доступа к каналу. Аккаунт сессии должен состоять в нём.", nil)
		return
	case err != nil:
		logger.Errorf("resolve channel: %v", err)
		d.send(ctx, chatID, "❌ Не удалось проверить канал, попробуйте ещё раз.", nil)
		return
	}

	if !isSource && !caps.CanPost {
		d.send(ctx, chatID, "⚠️ В канал назначения нельзя публиковать: нужны права на отправку сообщений.", nil)
		return
	}

	conv.UpdateConfig(func(c *convo.CopyConfig) {
		if isSource {
			c.Source = ref
		} else {
			c.Target = ref
		}
	})
	d.advanceConfig(ctx, conv, chatID)
}

func (d *Dispatcher) handleRangeStart(ctx context.Context, conv *convo.Conversation, chatID int64, text string) {
	// Диапазон "100-250" задаёт обе границы сразу.
	if start, end, ok := convo.ParseRange(text); ok {
		conv.UpdateConfig(func(c *convo.CopyConfig) {
			c.StartID, c.EndID = start, end
		})
		d.advanceConfig(ctx, conv, chatID)
		return
	}

	id, err := convo.ParseMessageID(text)
	if err != nil {
		d.send(ctx, chatID, "⚠️ Отправьте положительный ID, ссылку на сообщение или диапазон 100-250.", nil)
		return
	}
	applyRangeBound(conv, id, true)
	d.advanceConfig(ctx, conv, chatID)
}

func (d *Dispatcher) handleRangeEnd(ctx context.Context, conv *convo.Conversation, chatID int64, text string) {
	id, err := convo.ParseMessageID(text)
	if err != nil {
		d.send(ctx, chatID, "⚠️ Отправьте положительный ID или ссылку на сообщение.", nil)
		return
	}
	applyRangeBound(conv, id, false)
	d.advanceConfig(ctx, conv, chatID)
}

// applyRangeBound записывает границу диапазона и нормализует перепутанные
// границы, как и в текстовом вводе "250-100".
func applyRangeBound(conv *convo.Conversation, id int, isStart bool) {
	conv.UpdateConfig(func(c *convo.CopyConfig) {
		if isStart {
			c.StartID = id
		} else {
			c.EndID = id
		}
		if c.StartID > 0 && c.EndID > 0 && c.StartID > c.EndID {
			c.StartID, c.EndID = c.EndID, c.StartID
		}
	})
}

func (d *Dispatcher) advanceConfig(ctx context.Context, conv *convo.Conversation, chatID int64) {
	if err := conv.Transition(d.nextConfigState(conv.Config())); err != nil {
		logger.Warnf("transition: %v", err)
	}
	text, kb := configPanel(conv.Config())
	d.send(ctx, chatID, text, kb)
	if hint := configHint(conv.Config()); hint != "" {
		d.send(ctx, chatID, hint, nil)
	}
	if prompt := promptFor(conv.State()); prompt != "" {
		d.send(ctx, chatID, prompt, nil)
	}
}

// --- выполнение задания ---

// reserveJob атомарно занимает слот задания администратора. Повторное нажатие
// 🚀 до фактического старта (обработчики бота работают параллельно) получает
// false и не породит второе задание.
func (d *Dispatcher) reserveJob(userID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.jobs[userID]; busy {
		return false
	}
	d.jobs[userID] = &activeJob{}
	return true
}

func (d *Dispatcher) releaseJob(userID int64) {
	d.mu.Lock()
	delete(d.jobs, userID)
	d.mu.Unlock()
}

// commitJob заполняет занятый слот работающим заданием.
func (d *Dispatcher) commitJob(userID int64, job *copyjob.Job, editor *progressEditor) {
	d.mu.Lock()
	d.jobs[userID] = &activeJob{job: job, editor: editor}
	d.mu.Unlock()
}

func (d *Dispatcher) runJob(ctx context.Context, conv *convo.Conversation, chatID int64) {
	userID := conv.UserID()

	if !d.reserveJob(userID) {
		d.send(ctx, chatID, "⏳ Задание уже выполняется.", progressKeyboard())
		return
	}

	cfg := conv.Config()
	if err := cfg.Validate(); err != nil {
		d.releaseJob(userID)
		var text string
		switch {
		case errors.Is(err, convo.ErrSameChannel):
			text = "⚠️ Источник и назначение совпадают."
		case errors.Is(err, convo.ErrRangeInverted):
			text = "⚠️ Первый ID больше последнего."
		default:
			text = "⚠️ Конфигурация неполна: задайте источник, назначение и диапазон."
		}
		d.send(ctx, chatID, text, nil)
		d.renderCurrent(ctx, conv, chatID)
		return
	}

	api, err := d.sessions.API()
	if err != nil {
		d.releaseJob(userID)
		d.send(ctx, chatID, "⚠️ Сессия не настроена, запуск невозможен.", nil)
		return
	}

	copier := tgadapter.NewChannelCopier(api, d.throttler, cfg.Source, cfg.Target)
	appCtx := d.appCtx

	var editor *progressEditor
	job, err := copyjob.New(copier, cfg.StartID, cfg.EndID, copyjob.Options{
		MaxRetries:    d.env.CopyMaxRetries,
		ProgressEvery: d.env.ProgressEvery,
		OnProgress: func(p copyjob.Progress) {
			if editor != nil {
				editor.Update(appCtx, progressText(p))
			}
		},
	})
	if err != nil {
		d.releaseJob(userID)
		logger.Errorf("create job: %v", err)
		d.send(ctx, chatID, "❌ Не удалось создать задание: "+err.Error(), nil)
		return
	}

	initial := copyjob.Progress{Total: job.Total()}
	editor, err = newProgressEditor(ctx, d.bot, chatID, progressText(initial),
		time.Duration(d.env.ProgressEditMinSec)*time.Second)
	if err != nil {
		d.releaseJob(userID)
		logger.Errorf("send progress message: %v", err)
		d.send(ctx, chatID, "❌ Не удалось отправить сообщение прогресса.", nil)
		return
	}

	if err := conv.Transition(convo.StateCopyInProgress); err != nil {
		logger.Warnf("transition: %v", err)
	}

	d.commitJob(userID, job, editor)

	logger.Info("copy job started",
		zap.Int64("admin_id", userID),
		zap.Int64("source_id", cfg.Source.ID),
		zap.Int64("target_id", cfg.Target.ID),
		zap.Int("start_id", cfg.StartID),
		zap.Int("end_id", cfg.EndID))

	go d.executeJob(appCtx, conv, chatID, job, editor)
}

// executeJob выполняет задание в отдельной горутине и закрывает его итогом.
func (d *Dispatcher) executeJob(ctx context.Context, conv *convo.Conversation, chatID int64, job *copyjob.Job, editor *progressEditor) {
	res, runErr := job.Run(ctx)

	d.releaseJob(conv.UserID())

	if err := conv.Transition(convo.StateCopyComplete); err != nil {
		logger.Warnf("transition: %v", err)
	}

	if err := d.stats.RecordJob(conv.UserID(), res); err != nil {
		logger.Warnf("record stats: %v", err)
	}

	logger.Info("copy job finished",
		zap.Int64("admin_id", conv.UserID()),
		zap.String("status", res.Status.String()),
		zap.Int("succeeded", res.Counts.Succeeded),
		zap.Int("failed", res.Counts.Failed),
		zap.Int("skipped", res.Counts.Skipped),
		zap.Duration("elapsed", res.Elapsed))

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Errorf("job run: %v", runErr)
	}

	text, kb := resultPanel(res)
	editor.Finish(ctx, text, kb)
}

// cancelFor останавливает активное задание администратора либо, если задания
// нет, сбрасывает диалог в главное меню.
func (d *Dispatcher) cancelFor(ctx context.Context, userID, chatID int64) {
	d.mu.Lock()
	active, busy := d.jobs[userID]
	d.mu.Unlock()

	if busy {
		// Слот может быть ещё зарезервирован, но не заполнен заданием.
		if active.job == nil {
			d.send(ctx, chatID, "⏳ Задание ещё запускается, повторите через секунду.", nil)
			return
		}
		active.job.Cancel()
		logger.Info("cancellation requested", zap.Int64("admin_id", userID))
		d.send(ctx, chatID, "⏹ Останавливаю после текущего сообщения...", nil)
		return
	}

	d.registry.Get(userID).ForceIdle()
	d.send(ctx, chatID, "Действие отменено.", nil)
	d.sendMainMenu(ctx, chatID)
}

// --- вспомогательное ---

func (d *Dispatcher) sendMainMenu(ctx context.Context, chatID int64) {
	authorized, who := d.identity()
	text, kb := mainMenu(authorized, who)
	d.send(ctx, chatID, text, kb)
}

func (d *Dispatcher) sendStats(ctx context.Context, userID, chatID int64) {
	s, err := d.stats.Get(userID)
	if err != nil {
		logger.Warnf("read stats: %v", err)
		d.send(ctx, chatID, "❌ Не удалось прочитать статистику.", nil)
		return
	}
	d.send(ctx, chatID, statsText(s), nil)
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, kb *models.InlineKeyboardMarkup) {
	params := &tgbot.SendMessageParams{ChatID: chatID, Text: text}
	if kb != nil {
		params.ReplyMarkup = kb
	}
	if _, err := d.bot.SendMessage(ctx, params); err != nil {
		logger.Errorf("send message: %v", err)
	}
}
