package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"golos-bot/internal/metrics"
	"golos-bot/internal/store"
	"golos-bot/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Метрики регистрируются в Prometheus один раз на процесс
var testMetrics = metrics.New(zap.NewNop())

// failingSettings имитирует недоступное хранилище
type failingSettings struct{}

func (f *failingSettings) Get(ctx context.Context, userID int64) (*models.UserPreference, error) {
	return nil, errors.New("хранилище недоступно")
}

func (f *failingSettings) Set(ctx context.Context, pref *models.UserPreference, ttl time.Duration) error {
	return errors.New("хранилище недоступно")
}

func testDefaults() models.UserPreference {
	return models.UserPreference{
		VoiceID:         "JBFqnCBsd6RMkjVDRZzb",
		VoiceName:       "George",
		Stability:       models.DefaultStability,
		SimilarityBoost: models.DefaultSimilarityBoost,
	}
}

func TestGetCreatesDefaults(t *testing.T) {
	mem := store.NewMemoryStore()
	service := NewService(mem.Settings(), testDefaults(), time.Hour, time.Second, zap.NewNop(), testMetrics)

	ctx := context.Background()
	pref := service.Get(ctx, 42)
	require.NotNil(t, pref)
	assert.Equal(t, int64(42), pref.UserID)
	assert.Equal(t, "JBFqnCBsd6RMkjVDRZzb", pref.VoiceID)
	assert.Equal(t, models.DefaultStability, pref.Stability)

	// Запись по умолчанию сохранена в хранилище
	stored, err := mem.Settings().Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, pref.VoiceID, stored.VoiceID)
}

func TestSetMergesFields(t *testing.T) {
	mem := store.NewMemoryStore()
	service := NewService(mem.Settings(), testDefaults(), time.Hour, time.Second, zap.NewNop(), testMetrics)

	ctx := context.Background()
	voiceID := "EXAVITQu4vr4xnSDxMaL"
	voiceName := "Sarah"
	updated := service.Set(ctx, 42, &models.PreferenceUpdate{
		VoiceID:   &voiceID,
		VoiceName: &voiceName,
	})

	assert.Equal(t, "EXAVITQu4vr4xnSDxMaL", updated.VoiceID)
	assert.Equal(t, "Sarah", updated.VoiceName)
	// Незаполненные поля обновления не затронуты
	assert.Equal(t, models.DefaultStability, updated.Stability)
	assert.Equal(t, models.DefaultSimilarityBoost, updated.SimilarityBoost)

	// Повторное чтение возвращает сохраненные значения
	pref := service.Get(ctx, 42)
	assert.Equal(t, "EXAVITQu4vr4xnSDxMaL", pref.VoiceID)
}

func TestGetDegradedMode(t *testing.T) {
	service := NewService(&failingSettings{}, testDefaults(), time.Hour, time.Second, zap.NewNop(), testMetrics)

	ctx := context.Background()
	// Хранилище недоступно: отдаются значения по умолчанию без ошибки
	pref := service.Get(ctx, 42)
	require.NotNil(t, pref)
	assert.Equal(t, "JBFqnCBsd6RMkjVDRZzb", pref.VoiceID)
}

func TestSetDegradedMode(t *testing.T) {
	service := NewService(&failingSettings{}, testDefaults(), time.Hour, time.Second, zap.NewNop(), testMetrics)

	ctx := context.Background()
	voiceID := "EXAVITQu4vr4xnSDxMaL"
	service.Set(ctx, 42, &models.PreferenceUpdate{VoiceID: &voiceID})

	// Изменение пережило сбой в копии в памяти
	pref := service.Get(ctx, 42)
	assert.Equal(t, "EXAVITQu4vr4xnSDxMaL", pref.VoiceID)
}
