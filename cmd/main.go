package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golos-bot/internal/bot"
	"golos-bot/internal/config"
	"golos-bot/internal/metrics"
	"golos-bot/internal/ratelimit"
	"golos-bot/internal/settings"
	"golos-bot/internal/stats"
	"golos-bot/internal/store"
	"golos-bot/internal/tts"
	"golos-bot/internal/voices"
	"golos-bot/pkg/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func main() {
	// Инициализация логгера
	logger, err := initLogger()
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск Golos Bot")

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}

	// Инициализация хранилища
	st, storageMode := initStore(cfg, logger)
	defer st.Close()

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, logger)

	// Инициализация ElevenLabs клиента
	ttsService := tts.NewElevenLabsService(cfg.ElevenLabs.APIKey, cfg.ElevenLabs.BaseURL, cfg.ElevenLabs.Model, logger)
	logger.Info("ElevenLabs клиент инициализирован",
		zap.String("model", cfg.ElevenLabs.Model),
		zap.String("default_voice", cfg.ElevenLabs.DefaultVoiceName))

	// Инициализация сервисов
	defaults := models.UserPreference{
		VoiceID:         cfg.ElevenLabs.DefaultVoiceID,
		VoiceName:       cfg.ElevenLabs.DefaultVoiceName,
		Stability:       cfg.ElevenLabs.Stability,
		SimilarityBoost: cfg.ElevenLabs.SimilarityBoost,
	}
	settingsService := settings.NewService(st.Settings(), defaults, cfg.Redis.SettingsTTL, cfg.Redis.Timeout, logger, metricsSystem)
	limiter := ratelimit.NewLimiter(st.RateWindow(), cfg.RateLimit.Calls, cfg.RateLimit.Window, cfg.Redis.Timeout, logger, metricsSystem)
	voiceCache := voices.NewCache(st.VoiceCache(), cfg.Redis.VoicesTTL, cfg.Redis.Timeout, logger, metricsSystem)
	usageService := stats.NewService(st.Usage(), cfg.Redis.Timeout, logger)

	// Инициализация Telegram бота
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal("ошибка инициализации Telegram бота", zap.Error(err))
	}

	botInfo, err := botAPI.GetMe()
	if err != nil {
		logger.Fatal("ошибка получения информации о боте", zap.Error(err))
	}

	logger.Info("Telegram бот инициализирован",
		zap.String("username", botInfo.UserName),
		zap.Int64("id", botInfo.ID))

	// Инициализация обработчика
	handler := bot.NewHandler(botAPI, cfg, settingsService, limiter, voiceCache, ttsService, usageService, storageMode, logger, metricsSystem)

	// Создание канала для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Запуск HTTP сервера для метрик
	go startMetricsServer(ctx, cfg.App.Port, metricsHandler, logger)

	// Запуск обработки обновлений
	go handleUpdates(ctx, botAPI, handler, logger)

	logger.Info("приложение запущено и готово к работе",
		zap.String("address", fmt.Sprintf("http://localhost:%d", cfg.App.Port)),
		zap.Int("rate_limit_calls", cfg.RateLimit.Calls),
		zap.Duration("rate_limit_window", cfg.RateLimit.Window))

	// Ожидание сигнала завершения
	<-sigChan
	logger.Info("получен сигнал завершения, начинаем graceful shutdown")

	// Останавливаем получение обновлений
	botAPI.StopReceivingUpdates()

	logger.Info("приложение завершено")
}

// initLogger инициализирует логгер
func initLogger() (*zap.Logger, error) {
	// В продакшене можно использовать JSON формат
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stdout", "logs/app.log"}
	config.ErrorOutputPaths = []string{"stderr", "logs/error.log"}

	// Создаем директорию для логов если её нет
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	return config.Build()
}

// initStore подключается к Redis или переходит на хранилище в памяти.
// Недоступный Redis не мешает запуску: бот стартует в деградированном
// режиме и работает на памяти процесса.
func initStore(cfg *config.Config, logger *zap.Logger) (store.Store, string) {
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS_ADDR не задан, используется хранилище в памяти")
		return store.NewMemoryStore(), bot.StorageMemory
	}

	st, err := store.NewRedisStore(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis недоступен, используется хранилище в памяти",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err))
		return store.NewMemoryStore(), bot.StorageMemory
	}

	logger.Info("подключение к Redis установлено", zap.String("addr", cfg.Redis.Addr))
	return st, bot.StorageRedis
}

// handleUpdates обрабатывает обновления от Telegram
func handleUpdates(ctx context.Context, botAPI *tgbotapi.BotAPI, handler *bot.Handler, logger *zap.Logger) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case update := <-updates:
			// Пропускаем пустые обновления
			if update.Message == nil {
				continue
			}

			// Обрабатываем обновление в горутине
			go func(update tgbotapi.Update) {
				if err := handler.HandleUpdate(ctx, update); err != nil {
					logger.Error("ошибка обработки обновления",
						zap.Int64("chat_id", update.Message.Chat.ID),
						zap.Error(err))
				}
			}(update)

		case <-ctx.Done():
			logger.Info("остановка обработки обновлений")
			return
		}
	}
}

// startMetricsServer запускает HTTP сервер для метрик
func startMetricsServer(ctx context.Context, port int, handler *metrics.Handler, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler.MetricsHandler())
	mux.HandleFunc("/health", handler.HealthHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	logger.Info("HTTP сервер метрик запущен", zap.String("address", server.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ошибка HTTP сервера метрик", zap.Error(err))
		}
	}()

	// Ожидание сигнала завершения
	<-ctx.Done()

	// Graceful shutdown HTTP сервера
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера метрик", zap.Error(err))
	}

	logger.Info("HTTP сервер метрик остановлен")
}
