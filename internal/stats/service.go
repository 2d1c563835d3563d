package stats

import (
	"context"
	"time"

	"golos-bot/internal/store"
	"golos-bot/pkg/models"

	"go.uber.org/zap"
)

// Имена метрик использования
const (
	MetricTTSGeneration       = "tts_generation"
	MetricCharactersProcessed = "characters_processed"
	MetricStartCommand        = "start_command"
	MetricHelpCommand         = "help_command"
	MetricSettingsCommand     = "settings_command"
	MetricVoicesCommand       = "voices_command"
	MetricVoiceChange         = "voice_change"
	MetricErrors              = "errors"
)

// Service ведет счетчики использования бота.
// Счетчики best-effort: сбой хранилища логируется и не влияет на
// обработку сообщения, потерянные инкременты не восстанавливаются.
type Service struct {
	repo    store.UsageRepository
	timeout time.Duration
	logger  *zap.Logger
}

// NewService создает сервис статистики
func NewService(repo store.UsageRepository, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		timeout: timeout,
		logger:  logger,
	}
}

// Increment увеличивает счетчик метрики. userID = 0 означает только
// глобальный счетчик без пользовательского.
func (s *Service) Increment(ctx context.Context, metric string, amount int64, userID int64) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Increment(ctx, metric, amount, userID); err != nil {
		s.logger.Warn("не удалось записать статистику",
			zap.String("metric", metric),
			zap.Int64("amount", amount),
			zap.Error(err))
	}
}

// Totals возвращает глобальные счетчики по всем метрикам
func (s *Service) Totals(ctx context.Context) (models.UsageStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.Totals(ctx)
}
