package voices

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

func testVoices() []models.Voice {
	return []models.Voice{
		{VoiceID: "JBFqnCBsd6RMkjVDRZzb", Name: "George"},
		{VoiceID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah"},
	}
}

func TestVoicesFetchOncePerTTL(t *testing.T) {
	mem := store.NewMemoryStore()
	cache := NewCache(mem.VoiceCache(), time.Hour, time.Second, zap.NewNop(), testMetrics)

	calls := 0
	fetch := func(ctx context.Context) ([]models.Voice, error) {
		calls++
		return testVoices(), nil
	}

	ctx := context.Background()
	first, err := cache.Voices(ctx, fetch)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	// Повторный вызов внутри TTL идет из кэша
	second, err := cache.Voices(ctx, fetch)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestVoicesRefetchAfterExpiry(t *testing.T) {
	current := time.Now()
	mem := store.NewMemoryStoreWithClock(func() time.Time { return current })
	cache := NewCache(mem.VoiceCache(), time.Hour, time.Second, zap.NewNop(), testMetrics)

	calls := 0
	fetch := func(ctx context.Context) ([]models.Voice, error) {
		calls++
		return testVoices(), nil
	}

	ctx := context.Background()
	_, err := cache.Voices(ctx, fetch)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, err = cache.Voices(ctx, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestVoicesStaleFallback(t *testing.T) {
	current := time.Now()
	mem := store.NewMemoryStoreWithClock(func() time.Time { return current })
	cache := NewCache(mem.VoiceCache(), time.Hour, time.Second, zap.NewNop(), testMetrics)

	ctx := context.Background()
	_, err := cache.Voices(ctx, func(ctx context.Context) ([]models.Voice, error) {
		return testVoices(), nil
	})
	require.NoError(t, err)

	// Кэш истек, API недоступен: отдается последний известный список
	current = current.Add(2 * time.Hour)
	voices, err := cache.Voices(ctx, func(ctx context.Context) ([]models.Voice, error) {
		return nil, errors.New("api недоступен")
	})
	require.NoError(t, err)
	assert.Equal(t, testVoices(), voices)
}

func TestVoicesFirstFetchFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	cache := NewCache(mem.VoiceCache(), time.Hour, time.Second, zap.NewNop(), testMetrics)

	// Снимка еще нет: ошибка поднимается наружу
	_, err := cache.Voices(context.Background(), func(ctx context.Context) ([]models.Voice, error) {
		return nil, errors.New("api недоступен")
	})
	assert.Error(t, err)
}
