package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golos-bot/internal/config"
	"golos-bot/pkg/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisStore реализует Store поверх Redis
type redisStore struct {
	client   *redis.Client
	prefix   string
	logger   *zap.Logger
	settings SettingsRepository
	rate     RateWindowRepository
	voices   VoiceCacheRepository
	usage    UsageRepository
}

// NewRedisStore создает подключение к Redis и проверяет его
func NewRedisStore(cfg *config.RedisConfig, logger *zap.Logger) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ошибка проверки подключения к Redis: %w", err)
	}

	logger.Info("успешное подключение к Redis", zap.String("addr", cfg.Addr))

	s := &redisStore{
		client: client,
		prefix: cfg.KeyPrefix,
		logger: logger,
	}

	// Инициализация репозиториев
	s.settings = &redisSettingsRepository{s}
	s.rate = &redisRateWindowRepository{s}
	s.voices = &redisVoiceCacheRepository{s}
	s.usage = &redisUsageRepository{s}

	return s, nil
}

// Settings возвращает репозиторий настроек пользователей
func (s *redisStore) Settings() SettingsRepository {
	return s.settings
}

// RateWindow возвращает репозиторий окон rate limit
func (s *redisStore) RateWindow() RateWindowRepository {
	return s.rate
}

// VoiceCache возвращает репозиторий кэша голосов
func (s *redisStore) VoiceCache() VoiceCacheRepository {
	return s.voices
}

// Usage возвращает репозиторий счетчиков использования
func (s *redisStore) Usage() UsageRepository {
	return s.usage
}

// Ping проверяет доступность Redis
func (s *redisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis недоступен: %w", err)
	}
	return nil
}

// Close закрывает подключение к Redis
func (s *redisStore) Close() error {
	s.logger.Info("закрытие подключения к Redis")
	return s.client.Close()
}

// key собирает ключ с префиксом бота
func (s *redisStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

// redisSettingsRepository хранит настройки пользователей как JSON с TTL
type redisSettingsRepository struct {
	s *redisStore
}

func (r *redisSettingsRepository) Get(ctx context.Context, userID int64) (*models.UserPreference, error) {
	key := r.s.key("user", strconv.FormatInt(userID, 10))

	data, err := r.s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения настроек пользователя %d: %w", userID, err)
	}

	pref := &models.UserPreference{}
	if err := json.Unmarshal([]byte(data), pref); err != nil {
		return nil, fmt.Errorf("ошибка разбора настроек пользователя %d: %w", userID, err)
	}

	return pref, nil
}

func (r *redisSettingsRepository) Set(ctx context.Context, pref *models.UserPreference, ttl time.Duration) error {
	key := r.s.key("user", strconv.FormatInt(pref.UserID, 10))

	data, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("ошибка сериализации настроек пользователя %d: %w", pref.UserID, err)
	}

	if err := r.s.client.SetEx(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения настроек пользователя %d: %w", pref.UserID, err)
	}

	return nil
}

// redisRateWindowRepository хранит окна rate limit как счетчики с TTL
type redisRateWindowRepository struct {
	s *redisStore
}

func (r *redisRateWindowRepository) Incr(ctx context.Context, userID int64, window time.Duration) (int64, error) {
	key := r.s.key("rate_limit", strconv.FormatInt(userID, 10))

	// Одна атомарная операция: INCR открывает окно при первом запросе,
	// EXPIRE NX выставляет срок жизни только новому окну. Протухшие окна
	// Redis удаляет сам, отдельной чистки не требуется.
	pipe := r.s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("ошибка инкремента окна rate limit пользователя %d: %w", userID, err)
	}

	return incr.Val(), nil
}

func (r *redisRateWindowRepository) Status(ctx context.Context, userID int64) (*models.RateStatus, error) {
	key := r.s.key("rate_limit", strconv.FormatInt(userID, 10))

	pipe := r.s.client.TxPipeline()
	get := pipe.Get(ctx, key)
	pttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("ошибка чтения окна rate limit пользователя %d: %w", userID, err)
	}

	status := &models.RateStatus{}
	if count, err := get.Int64(); err == nil {
		status.Count = count
	}
	if ttl := pttl.Val(); ttl > 0 {
		status.Remaining = ttl
	}

	return status, nil
}

// redisVoiceCacheRepository хранит список голосов как JSON с TTL
type redisVoiceCacheRepository struct {
	s *redisStore
}

func (r *redisVoiceCacheRepository) Get(ctx context.Context) ([]models.Voice, error) {
	key := r.s.key("voices_cache")

	data, err := r.s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения кэша голосов: %w", err)
	}

	var voices []models.Voice
	if err := json.Unmarshal([]byte(data), &voices); err != nil {
		return nil, fmt.Errorf("ошибка разбора кэша голосов: %w", err)
	}

	return voices, nil
}

func (r *redisVoiceCacheRepository) Set(ctx context.Context, voices []models.Voice, ttl time.Duration) error {
	key := r.s.key("voices_cache")

	data, err := json.Marshal(voices)
	if err != nil {
		return fmt.Errorf("ошибка сериализации списка голосов: %w", err)
	}

	if err := r.s.client.SetEx(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения кэша голосов: %w", err)
	}

	return nil
}

const (
	dailyStatsTTL = 7 * 24 * time.Hour
	userStatsTTL  = 30 * 24 * time.Hour
)

// redisUsageRepository ведет счетчики использования
type redisUsageRepository struct {
	s *redisStore
}

func (r *redisUsageRepository) Increment(ctx context.Context, metric string, amount int64, userID int64) error {
	pipe := r.s.client.TxPipeline()

	// Глобальный счетчик
	pipe.IncrBy(ctx, r.s.key("stats", metric), amount)

	// Дневной счетчик
	today := time.Now().Format("2006-01-02")
	dailyKey := r.s.key("stats", metric, today)
	pipe.IncrBy(ctx, dailyKey, amount)
	pipe.Expire(ctx, dailyKey, dailyStatsTTL)

	// Пользовательский счетчик
	if userID != 0 {
		userKey := r.s.key("stats", "user", strconv.FormatInt(userID, 10), metric)
		pipe.IncrBy(ctx, userKey, amount)
		pipe.Expire(ctx, userKey, userStatsTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ошибка инкремента счетчика %s: %w", metric, err)
	}

	return nil
}

func (r *redisUsageRepository) Totals(ctx context.Context) (models.UsageStats, error) {
	statsPrefix := r.s.key("stats") + ":"

	stats := models.UsageStats{}
	iter := r.s.client.Scan(ctx, 0, statsPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		metric := strings.TrimPrefix(key, statsPrefix)
		// Дневные и пользовательские счетчики пропускаем
		if strings.Contains(metric, ":") {
			continue
		}

		value, err := r.s.client.Get(ctx, key).Int64()
		if err != nil {
			continue
		}
		stats[metric] = value
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения счетчиков использования: %w", err)
	}

	return stats, nil
}
