package voices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golos-bot/internal/metrics"
	"golos-bot/internal/store"
	"golos-bot/pkg/models"

	"go.uber.org/zap"
)

// FetchFunc загружает актуальный список голосов из внешнего API
type FetchFunc func(ctx context.Context) ([]models.Voice, error)

// Cache отдает список голосов, избегая лишних походов во внешний API.
//
// Свежий список берется из хранилища; при промахе кэша вызывается fetch и
// результат сохраняется с TTL. Последний успешно полученный список
// дополнительно держится в памяти процесса: если и хранилище, и API
// недоступны, отдается устаревший снимок вместо ошибки.
type Cache struct {
	repo    store.VoiceCacheRepository
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	lastKnown []models.Voice
}

// NewCache создает кэш списка голосов с заданным TTL
func NewCache(repo store.VoiceCacheRepository, ttl, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Cache {
	return &Cache{
		repo:    repo,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Voices возвращает список голосов: из кэша, из fetch или, в крайнем
// случае, последний известный снимок. Ошибка возвращается только если
// голоса не удалось получить ни разу за время жизни процесса.
func (c *Cache) Voices(ctx context.Context, fetch FetchFunc) ([]models.Voice, error) {
	readCtx, cancel := context.WithTimeout(ctx, c.timeout)
	cached, err := c.repo.Get(readCtx)
	cancel()
	if err == nil && len(cached) > 0 {
		c.remember(cached)
		return cached, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.logger.Warn("кэш голосов недоступен", zap.Error(err))
		c.metrics.RecordStoreFallback("voice_cache")
	}

	voices, err := fetch(ctx)
	if err != nil {
		c.mu.Lock()
		stale := c.lastKnown
		c.mu.Unlock()
		if len(stale) > 0 {
			c.logger.Warn("не удалось обновить список голосов, используется устаревший снимок",
				zap.Int("voices", len(stale)),
				zap.Error(err))
			return stale, nil
		}
		return nil, fmt.Errorf("ошибка получения списка голосов: %w", err)
	}

	// Запись в кэш best-effort: сбой не мешает отдать свежий список
	writeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	if err := c.repo.Set(writeCtx, voices, c.ttl); err != nil {
		c.logger.Warn("не удалось сохранить список голосов в кэш", zap.Error(err))
	}
	cancel()

	c.remember(voices)
	c.logger.Info("список голосов обновлен", zap.Int("voices", len(voices)))
	return voices, nil
}

func (c *Cache) remember(voices []models.Voice) {
	c.mu.Lock()
	c.lastKnown = voices
	c.mu.Unlock()
}
