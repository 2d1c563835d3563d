package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golos-bot/internal/config"
	"golos-bot/internal/metrics"
	"golos-bot/internal/ratelimit"
	"golos-bot/internal/settings"
	"golos-bot/internal/stats"
	"golos-bot/internal/tts"
	"golos-bot/internal/voices"
	"golos-bot/pkg/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Handler представляет обработчик сообщений Telegram
type Handler struct {
	bot        *tgbotapi.BotAPI
	cfg        *config.Config
	settings   *settings.Service
	limiter    *ratelimit.Limiter
	voiceCache *voices.Cache
	ttsService tts.Service
	usage      *stats.Service
	storage    string
	messages   *Messages
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewHandler создает новый обработчик
func NewHandler(
	bot *tgbotapi.BotAPI,
	cfg *config.Config,
	settingsService *settings.Service,
	limiter *ratelimit.Limiter,
	voiceCache *voices.Cache,
	ttsService tts.Service,
	usage *stats.Service,
	storage string,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		bot:        bot,
		cfg:        cfg,
		settings:   settingsService,
		limiter:    limiter,
		voiceCache: voiceCache,
		ttsService: ttsService,
		usage:      usage,
		storage:    storage,
		messages:   NewMessages(),
		logger:     logger,
		metrics:    m,
	}
}

// HandleUpdate обрабатывает входящее обновление
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	message := update.Message
	h.logger.Debug("получено сообщение",
		zap.Int64("chat_id", message.Chat.ID),
		zap.Int64("user_id", message.From.ID),
		zap.String("username", message.From.UserName))

	var err error
	if message.IsCommand() {
		err = h.handleCommand(ctx, message)
	} else {
		err = h.handleTextMessage(ctx, message)
	}

	// Любая ошибка обработки попадает в счетчик errors
	if err != nil {
		h.usage.Increment(ctx, stats.MetricErrors, 1, message.From.ID)
	}

	return err
}

// handleCommand обрабатывает команды
func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	h.metrics.RecordMessage("command")

	switch message.Command() {
	case "start":
		return h.handleStartCommand(ctx, message)
	case "help":
		return h.handleHelpCommand(ctx, message)
	case "settings":
		return h.handleSettingsCommand(ctx, message)
	case "stats":
		return h.handleStatsCommand(ctx, message)
	case "voices":
		return h.handleVoicesCommand(ctx, message)
	case "setvoice":
		return h.handleSetVoiceCommand(ctx, message)
	default:
		return h.sendMessage(message.Chat.ID, h.messages.UnknownCommand())
	}
}

// handleStartCommand обрабатывает команду /start
func (h *Handler) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	// Создаем настройки по умолчанию для нового пользователя
	h.settings.Get(ctx, message.From.ID)
	h.usage.Increment(ctx, stats.MetricStartCommand, 1, message.From.ID)

	name := message.From.FirstName
	if name == "" {
		name = message.From.UserName
	}
	return h.sendMessage(message.Chat.ID, h.messages.Welcome(name))
}

// handleHelpCommand обрабатывает команду /help
func (h *Handler) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	h.usage.Increment(ctx, stats.MetricHelpCommand, 1, message.From.ID)

	pref := h.settings.Get(ctx, message.From.ID)
	return h.sendMessage(message.Chat.ID, h.messages.Help(
		pref.VoiceName,
		h.limiter.Limit(),
		int(h.limiter.Window().Seconds()),
		h.cfg.Bot.MaxMessageLength,
	))
}

// handleSettingsCommand показывает текущие настройки озвучки
func (h *Handler) handleSettingsCommand(ctx context.Context, message *tgbotapi.Message) error {
	h.usage.Increment(ctx, stats.MetricSettingsCommand, 1, message.From.ID)

	pref := h.settings.Get(ctx, message.From.ID)
	status := h.limiter.Status(ctx, message.From.ID)
	if status == nil {
		status = &models.RateStatus{}
	}
	return h.sendMessage(message.Chat.ID, h.messages.Settings(pref, h.cfg.ElevenLabs.Model, h.cfg.Bot.MaxMessageLength, h.storage, status, h.limiter.Limit()))
}

// handleStatsCommand показывает глобальную статистику бота
func (h *Handler) handleStatsCommand(ctx context.Context, message *tgbotapi.Message) error {
	totals, err := h.usage.Totals(ctx)
	if err != nil {
		h.logger.Warn("не удалось получить статистику", zap.Error(err))
		return h.sendMessage(message.Chat.ID, h.messages.StatsUnavailable())
	}
	return h.sendMessage(message.Chat.ID, h.messages.Stats(totals))
}

// handleVoicesCommand показывает каталог голосов
func (h *Handler) handleVoicesCommand(ctx context.Context, message *tgbotapi.Message) error {
	h.usage.Increment(ctx, stats.MetricVoicesCommand, 1, message.From.ID)

	list, err := h.voiceCache.Voices(ctx, h.ttsService.ListVoices)
	if err != nil {
		h.logger.Error("не удалось получить список голосов", zap.Error(err))
		return h.sendMessage(message.Chat.ID, h.messages.VoicesUnavailable())
	}

	pref := h.settings.Get(ctx, message.From.ID)
	return h.sendMessage(message.Chat.ID, h.messages.VoiceList(list, pref.VoiceID))
}

// handleSetVoiceCommand меняет голос пользователя
func (h *Handler) handleSetVoiceCommand(ctx context.Context, message *tgbotapi.Message) error {
	name := strings.TrimSpace(message.CommandArguments())
	if name == "" {
		return h.sendMessage(message.Chat.ID, h.messages.VoiceUsage())
	}

	list, err := h.voiceCache.Voices(ctx, h.ttsService.ListVoices)
	if err != nil {
		h.logger.Error("не удалось получить список голосов", zap.Error(err))
		return h.sendMessage(message.Chat.ID, h.messages.VoicesUnavailable())
	}

	for _, voice := range list {
		if strings.EqualFold(voice.Name, name) {
			h.settings.Set(ctx, message.From.ID, &models.PreferenceUpdate{
				VoiceID:   &voice.VoiceID,
				VoiceName: &voice.Name,
			})
			h.usage.Increment(ctx, stats.MetricVoiceChange, 1, message.From.ID)
			return h.sendMessage(message.Chat.ID, h.messages.VoiceChanged(voice.Name))
		}
	}

	return h.sendMessage(message.Chat.ID, h.messages.VoiceNotFound(name))
}

// handleTextMessage озвучивает текст сообщения
func (h *Handler) handleTextMessage(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return h.sendMessage(message.Chat.ID, h.messages.EmptyText())
	}

	if reject := h.preflight(ctx, userID, text); reject != "" {
		return h.sendMessage(message.Chat.ID, reject)
	}

	h.metrics.RecordMessage("text")

	// Плейсхолдер, чтобы пользователь видел, что запрос принят
	placeholder, err := h.bot.Send(tgbotapi.NewMessage(message.Chat.ID, h.messages.Generating()))
	if err != nil {
		h.logger.Error("ошибка отправки сообщения", zap.Error(err))
	}

	pref := h.settings.Get(ctx, userID)

	start := time.Now()
	audio, err := h.ttsService.Synthesize(ctx, text, pref)
	elapsed := time.Since(start)

	characters := utf8.RuneCountInString(text)
	if err != nil {
		h.logger.Error("ошибка синтеза речи",
			zap.Int64("user_id", userID),
			zap.Error(err))
		h.metrics.RecordSynthesis(false, 0, elapsed.Seconds())
		h.usage.Increment(ctx, stats.MetricErrors, 1, userID)
		return h.editOrSend(message.Chat.ID, placeholder.MessageID, h.messages.GenerationFailed())
	}

	h.metrics.RecordSynthesis(true, characters, elapsed.Seconds())
	h.usage.Increment(ctx, stats.MetricTTSGeneration, 1, userID)
	h.usage.Increment(ctx, stats.MetricCharactersProcessed, int64(characters), userID)

	voice := tgbotapi.NewVoice(message.Chat.ID, tgbotapi.FileBytes{
		Name:  "speech.mp3",
		Bytes: audio,
	})
	voice.Caption = fmt.Sprintf("🎙 %s", pref.VoiceName)
	if _, err := h.bot.Send(voice); err != nil {
		h.logger.Error("ошибка отправки аудио",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return h.editOrSend(message.Chat.ID, placeholder.MessageID, h.messages.GenerationFailed())
	}

	// Убираем плейсхолдер после успешной отправки аудио
	if placeholder.MessageID != 0 {
		if _, err := h.bot.Request(tgbotapi.NewDeleteMessage(message.Chat.ID, placeholder.MessageID)); err != nil {
			h.logger.Debug("не удалось удалить плейсхолдер", zap.Error(err))
		}
	}

	h.logger.Info("аудио отправлено",
		zap.Int64("user_id", userID),
		zap.Int("characters", characters),
		zap.Duration("synthesis_time", elapsed))

	return nil
}

// preflight проверяет, можно ли озвучить сообщение, и возвращает текст
// отказа или пустую строку. Окно rate limit расходуется первым: слишком
// длинное сообщение тоже считается запросом, как и на синтез.
func (h *Handler) preflight(ctx context.Context, userID int64, text string) string {
	if !h.limiter.Admit(ctx, userID) {
		h.metrics.RecordRateDenial()
		seconds := int(h.limiter.Window().Seconds())
		if status := h.limiter.Status(ctx, userID); status != nil && status.Remaining > 0 {
			seconds = int(status.Remaining.Seconds()) + 1
		}
		return h.messages.RateLimited(seconds)
	}

	if utf8.RuneCountInString(text) > h.cfg.Bot.MaxMessageLength {
		return h.messages.TooLong(h.cfg.Bot.MaxMessageLength)
	}

	return ""
}

// sendMessage отправляет HTML сообщение
func (h *Handler) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("ошибка отправки сообщения",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("ошибка отправки сообщения: %w", err)
	}
	return nil
}

// editOrSend правит плейсхолдер или отправляет новое сообщение,
// если плейсхолдер не был создан
func (h *Handler) editOrSend(chatID int64, messageID int, text string) error {
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		if _, err := h.bot.Send(edit); err == nil {
			return nil
		}
	}
	return h.sendMessage(chatID, text)
}
