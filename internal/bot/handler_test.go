package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golos-bot/internal/config"
	"golos-bot/internal/metrics"
	"golos-bot/internal/ratelimit"
	"golos-bot/internal/settings"
	"golos-bot/internal/stats"
	"golos-bot/internal/store"
	"golos-bot/pkg/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Метрики регистрируются в Prometheus один раз на процесс
var testMetrics = metrics.New(zap.NewNop())

func newTestHandler(botAPI *tgbotapi.BotAPI, mem *store.MemoryStore, limit, maxLength int) *Handler {
	cfg := &config.Config{}
	cfg.Bot.MaxMessageLength = maxLength
	cfg.ElevenLabs.Model = "eleven_multilingual_v2"

	defaults := models.UserPreference{
		VoiceID:         "JBFqnCBsd6RMkjVDRZzb",
		VoiceName:       "George",
		Stability:       models.DefaultStability,
		SimilarityBoost: models.DefaultSimilarityBoost,
	}

	logger := zap.NewNop()
	return &Handler{
		bot:      botAPI,
		cfg:      cfg,
		settings: settings.NewService(mem.Settings(), defaults, time.Hour, time.Second, logger, testMetrics),
		limiter:  ratelimit.NewLimiter(mem.RateWindow(), limit, time.Minute, time.Second, logger, testMetrics),
		usage:    stats.NewService(mem.Usage(), time.Second, logger),
		storage:  StorageMemory,
		messages: NewMessages(),
		logger:   logger,
		metrics:  testMetrics,
	}
}

func TestPreflightOverLengthConsumesWindow(t *testing.T) {
	mem := store.NewMemoryStore()
	h := newTestHandler(nil, mem, 5, 10)

	ctx := context.Background()
	reject := h.preflight(ctx, 42, strings.Repeat("а", 20))
	assert.Contains(t, reject, "длинное")

	// Слишком длинное сообщение все равно расходует окно
	status, err := mem.RateWindow().Status(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Count)
}

func TestPreflightRateLimitBeforeLength(t *testing.T) {
	mem := store.NewMemoryStore()
	h := newTestHandler(nil, mem, 1, 10)

	ctx := context.Background()
	assert.Empty(t, h.preflight(ctx, 42, "привет"))

	// Лимит исчерпан: даже длинное сообщение получает ответ про лимит
	reject := h.preflight(ctx, 42, strings.Repeat("а", 20))
	assert.Contains(t, reject, "Слишком много запросов")
}

func TestHandleUpdateCountsErrors(t *testing.T) {
	// Telegram API принимает getMe и отклоняет все остальное
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Test","username":"test_bot"}}`))
			return
		}
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request"}`))
	}))
	defer server.Close()

	botAPI, err := tgbotapi.NewBotAPIWithAPIEndpoint("test-token", server.URL+"/bot%s/%s")
	require.NoError(t, err)

	mem := store.NewMemoryStore()
	h := newTestHandler(botAPI, mem, 5, 100)

	ctx := context.Background()
	update := tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: 42},
			Chat:      &tgbotapi.Chat{ID: 1},
			Text:      "/bogus",
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
		},
	}

	assert.Error(t, h.HandleUpdate(ctx, update))

	totals, err := mem.Usage().Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals[stats.MetricErrors])
}
