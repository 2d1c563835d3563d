package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"golos-bot/internal/metrics"
	"golos-bot/internal/store"
	"golos-bot/pkg/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Метрики регистрируются в Prometheus один раз на процесс
var testMetrics = metrics.New(zap.NewNop())

// failingWindows имитирует недоступное хранилище
type failingWindows struct{}

func (f *failingWindows) Incr(ctx context.Context, userID int64, window time.Duration) (int64, error) {
	return 0, errors.New("хранилище недоступно")
}

func (f *failingWindows) Status(ctx context.Context, userID int64) (*models.RateStatus, error) {
	return nil, errors.New("хранилище недоступно")
}

func TestAdmitScenario(t *testing.T) {
	// Лимит 5, окно 60 секунд: шесть подряд запросов
	mem := store.NewMemoryStore()
	limiter := NewLimiter(mem.RateWindow(), 5, 60*time.Second, time.Second, zap.NewNop(), testMetrics)

	ctx := context.Background()
	var results []bool
	for i := 0; i < 6; i++ {
		results = append(results, limiter.Admit(ctx, 42))
	}

	assert.Equal(t, []bool{true, true, true, true, true, false}, results)
}

func TestAdmitWindowReset(t *testing.T) {
	current := time.Now()
	mem := store.NewMemoryStoreWithClock(func() time.Time { return current })
	limiter := NewLimiter(mem.RateWindow(), 2, time.Minute, time.Second, zap.NewNop(), testMetrics)

	ctx := context.Background()
	assert.True(t, limiter.Admit(ctx, 42))
	assert.True(t, limiter.Admit(ctx, 42))
	assert.False(t, limiter.Admit(ctx, 42))

	// После истечения окна счет начинается заново
	current = current.Add(61 * time.Second)
	assert.True(t, limiter.Admit(ctx, 42))

	status := limiter.Status(ctx, 42)
	assert.Equal(t, int64(1), status.Count)
}

func TestAdmitIndependentUsers(t *testing.T) {
	mem := store.NewMemoryStore()
	limiter := NewLimiter(mem.RateWindow(), 1, time.Minute, time.Second, zap.NewNop(), testMetrics)

	ctx := context.Background()
	assert.True(t, limiter.Admit(ctx, 1))
	assert.False(t, limiter.Admit(ctx, 1))

	// Лимит другого пользователя не затронут
	assert.True(t, limiter.Admit(ctx, 2))
}

func TestAdmitDegradedMode(t *testing.T) {
	// Недоступное хранилище: решения принимаются в памяти, ошибок наружу нет
	limiter := NewLimiter(&failingWindows{}, 3, time.Minute, time.Second, zap.NewNop(), testMetrics)

	ctx := context.Background()
	var results []bool
	for i := 0; i < 4; i++ {
		results = append(results, limiter.Admit(ctx, 42))
	}

	assert.Equal(t, []bool{true, true, true, false}, results)

	status := limiter.Status(ctx, 42)
	assert.Equal(t, int64(4), status.Count)
}

func TestStatusRemaining(t *testing.T) {
	current := time.Now()
	mem := store.NewMemoryStoreWithClock(func() time.Time { return current })
	limiter := NewLimiter(mem.RateWindow(), 5, time.Minute, time.Second, zap.NewNop(), testMetrics)

	ctx := context.Background()
	limiter.Admit(ctx, 42)

	current = current.Add(20 * time.Second)
	status := limiter.Status(ctx, 42)
	assert.Equal(t, int64(1), status.Count)
	assert.Equal(t, 40*time.Second, status.Remaining)
}
