package store

import (
	"context"
	"errors"
	"time"

	"golos-bot/pkg/models"
)

// ErrNotFound возвращается, когда запись отсутствует в хранилище
var ErrNotFound = errors.New("запись не найдена")

// Store представляет интерфейс для работы с key-value хранилищем бота
type Store interface {
	Settings() SettingsRepository
	RateWindow() RateWindowRepository
	VoiceCache() VoiceCacheRepository
	Usage() UsageRepository
	Ping(ctx context.Context) error
	Close() error
}

// SettingsRepository интерфейс для настроек пользователей
type SettingsRepository interface {
	Get(ctx context.Context, userID int64) (*models.UserPreference, error)
	Set(ctx context.Context, pref *models.UserPreference, ttl time.Duration) error
}

// RateWindowRepository интерфейс для окон rate limit
type RateWindowRepository interface {
	// Incr атомарно увеличивает счетчик текущего окна пользователя.
	// Первый инкремент открывает новое окно со сроком жизни window,
	// по истечении которого окно удаляется само.
	Incr(ctx context.Context, userID int64, window time.Duration) (int64, error)
	// Status возвращает счетчик текущего окна и время до его сброса
	Status(ctx context.Context, userID int64) (*models.RateStatus, error)
}

// VoiceCacheRepository интерфейс для кэша списка голосов
type VoiceCacheRepository interface {
	Get(ctx context.Context) ([]models.Voice, error)
	Set(ctx context.Context, voices []models.Voice, ttl time.Duration) error
}

// UsageRepository интерфейс для счетчиков использования
type UsageRepository interface {
	// Increment увеличивает глобальный, дневной и пользовательский
	// счетчики метрики. userID = 0 означает только глобальный счетчик.
	Increment(ctx context.Context, metric string, amount int64, userID int64) error
	// Totals возвращает глобальные счетчики по всем метрикам
	Totals(ctx context.Context) (models.UsageStats, error)
}
