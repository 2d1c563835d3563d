package settings

import (
	"context"
	"errors"
	"time"

	"golos-bot/internal/metrics"
	"golos-bot/internal/store"
	"golos-bot/pkg/models"

	"go.uber.org/zap"
)

// Service управляет настройками озвучки пользователей.
//
// Чтение и запись идут в основное хранилище; при его недоступности сервис
// работает с копией в памяти процесса. Настройки, измененные во время сбоя,
// не переживут рестарт процесса — это осознанная деградация вместо отказа.
type Service struct {
	repo     store.SettingsRepository
	fallback store.SettingsRepository
	defaults models.UserPreference
	ttl      time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewService создает сервис настроек с заданными значениями по умолчанию
func NewService(repo store.SettingsRepository, defaults models.UserPreference, ttl, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		fallback: store.NewMemoryStore().Settings(),
		defaults: defaults,
		ttl:      ttl,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

// Get возвращает настройки пользователя. Для нового пользователя создается
// и сохраняется запись со значениями по умолчанию. Метод никогда не
// возвращает ошибку: при сбое хранилища отдается копия из памяти или
// значения по умолчанию.
func (s *Service) Get(ctx context.Context, userID int64) *models.UserPreference {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pref, err := s.repo.Get(ctx, userID)
	if err == nil {
		// Поддерживаем копию в памяти на случай последующего сбоя
		_ = s.fallback.Set(ctx, pref, s.ttl)
		return pref
	}

	if errors.Is(err, store.ErrNotFound) {
		pref = s.defaultPreference(userID)
		if err := s.repo.Set(ctx, pref, s.ttl); err != nil {
			s.logger.Warn("не удалось сохранить настройки по умолчанию",
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
		_ = s.fallback.Set(ctx, pref, s.ttl)
		return pref
	}

	// Хранилище недоступно: отдаем последнюю известную копию
	s.logger.Warn("хранилище недоступно, настройки читаются из памяти",
		zap.Int64("user_id", userID),
		zap.Error(err))
	s.metrics.RecordStoreFallback("settings")

	pref, err = s.fallback.Get(ctx, userID)
	if err != nil {
		return s.defaultPreference(userID)
	}
	return pref
}

// Set сливает переданные поля с текущими настройками пользователя и
// сохраняет результат (last-write-wins). Возвращает итоговые настройки.
func (s *Service) Set(ctx context.Context, userID int64, update *models.PreferenceUpdate) *models.UserPreference {
	pref := s.Get(ctx, userID)
	update.Apply(pref)
	pref.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Set(ctx, pref, s.ttl); err != nil {
		s.logger.Warn("хранилище недоступно, настройки сохранены в памяти",
			zap.Int64("user_id", userID),
			zap.Error(err))
		s.metrics.RecordStoreFallback("settings")
	}
	_ = s.fallback.Set(ctx, pref, s.ttl)

	s.logger.Info("настройки пользователя обновлены",
		zap.Int64("user_id", userID),
		zap.String("voice_id", pref.VoiceID),
		zap.String("voice_name", pref.VoiceName))

	return pref
}

// defaultPreference собирает запись по умолчанию для пользователя
func (s *Service) defaultPreference(userID int64) *models.UserPreference {
	pref := s.defaults
	pref.UserID = userID
	pref.UpdatedAt = time.Now()
	return &pref
}
