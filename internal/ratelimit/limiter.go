package ratelimit

import (
	"context"
	"time"

	"golos-bot/internal/metrics"
	"golos-bot/internal/store"
	"golos-bot/pkg/models"

	"go.uber.org/zap"
)

// Limiter решает, допускается ли очередной запрос пользователя.
// Счетчик ведется в окнах фиксированной длины: первый запрос открывает
// окно, запросы сверх лимита внутри окна отклоняются, по истечении окна
// счет начинается заново.
//
// При недоступном хранилище лимитер переходит на окна в памяти процесса
// с той же семантикой: решение принимается всегда, ошибка наружу не
// поднимается, теряется только согласованность между инстансами.
type Limiter struct {
	windows  store.RateWindowRepository
	fallback store.RateWindowRepository
	limit    int64
	window   time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewLimiter создает rate limiter с заданным лимитом и окном
func NewLimiter(windows store.RateWindowRepository, limit int, window, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Limiter {
	return &Limiter{
		windows:  windows,
		fallback: store.NewMemoryStore().RateWindow(),
		limit:    int64(limit),
		window:   window,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

// Admit сообщает, допускается ли запрос пользователя в текущем окне
func (l *Limiter) Admit(ctx context.Context, userID int64) bool {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	count, err := l.windows.Incr(ctx, userID, l.window)
	if err != nil {
		l.logger.Warn("хранилище недоступно, rate limit считается в памяти",
			zap.Int64("user_id", userID),
			zap.Error(err))
		l.metrics.RecordStoreFallback("rate_limiter")

		// Окна в памяти не возвращают ошибок
		count, _ = l.fallback.Incr(ctx, userID, l.window)
	}

	admitted := count <= l.limit
	if !admitted {
		l.logger.Debug("запрос отклонен rate limiter",
			zap.Int64("user_id", userID),
			zap.Int64("count", count),
			zap.Int64("limit", l.limit))
	}

	return admitted
}

// Status возвращает состояние окна пользователя: сколько запросов учтено
// и через сколько окно сбросится
func (l *Limiter) Status(ctx context.Context, userID int64) *models.RateStatus {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	status, err := l.windows.Status(ctx, userID)
	if err != nil {
		l.logger.Warn("не удалось прочитать состояние rate limit",
			zap.Int64("user_id", userID),
			zap.Error(err))

		status, _ = l.fallback.Status(ctx, userID)
	}

	return status
}

// Limit возвращает настроенный лимит запросов
func (l *Limiter) Limit() int {
	return int(l.limit)
}

// Window возвращает длину окна
func (l *Limiter) Window() time.Duration {
	return l.window
}
