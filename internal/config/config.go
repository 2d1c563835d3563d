package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golos-bot/pkg/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	Telegram   TelegramConfig
	ElevenLabs ElevenLabsConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Bot        BotConfig
	App        AppConfig
}

// TelegramConfig содержит настройки Telegram бота
type TelegramConfig struct {
	BotToken string
}

// ElevenLabsConfig содержит настройки ElevenLabs API
type ElevenLabsConfig struct {
	APIKey           string
	BaseURL          string
	Model            string
	DefaultVoiceID   string
	DefaultVoiceName string
	Stability        float64
	SimilarityBoost  float64
}

// RedisConfig содержит настройки подключения к Redis.
// Пустой Addr означает работу без Redis (хранилище в памяти).
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	Timeout     time.Duration
	SettingsTTL time.Duration
	VoicesTTL   time.Duration
}

// RateLimitConfig содержит параметры ограничения запросов
type RateLimitConfig struct {
	Calls  int
	Window time.Duration
}

// BotConfig содержит ограничения обработки сообщений
type BotConfig struct {
	MaxMessageLength int
}

type AppConfig struct {
	Env      string
	LogLevel string
	Port     int
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Telegram
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	// ElevenLabs
	cfg.ElevenLabs.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	cfg.ElevenLabs.BaseURL = getEnvDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1")
	cfg.ElevenLabs.Model = getEnvDefault("DEFAULT_MODEL", "eleven_multilingual_v2")
	cfg.ElevenLabs.DefaultVoiceID = getEnvDefault("DEFAULT_VOICE_ID", "JBFqnCBsd6RMkjVDRZzb")
	cfg.ElevenLabs.DefaultVoiceName = getEnvDefault("DEFAULT_VOICE_NAME", "George")
	cfg.ElevenLabs.Stability = getEnvFloatDefault("TTS_STABILITY", models.DefaultStability)
	cfg.ElevenLabs.SimilarityBoost = getEnvFloatDefault("TTS_SIMILARITY_BOOST", models.DefaultSimilarityBoost)

	// Redis
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getEnvIntDefault("REDIS_DB", 0)
	cfg.Redis.KeyPrefix = getEnvDefault("REDIS_KEY_PREFIX", "tts_bot")
	cfg.Redis.Timeout = getEnvDurationDefault("REDIS_TIMEOUT", 2*time.Second)
	cfg.Redis.SettingsTTL = getEnvDurationDefault("SETTINGS_TTL", 30*24*time.Hour)
	cfg.Redis.VoicesTTL = getEnvDurationDefault("VOICES_CACHE_TTL", time.Hour)

	// Rate limiting
	cfg.RateLimit.Calls = getEnvIntDefault("RATE_LIMIT_CALLS", 10)
	cfg.RateLimit.Window = getEnvDurationDefault("RATE_LIMIT_WINDOW", 60*time.Second)

	// Bot
	cfg.Bot.MaxMessageLength = getEnvIntDefault("MAX_MESSAGE_LENGTH", 2500)

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN не установлен")
	}
	if config.ElevenLabs.APIKey == "" {
		return fmt.Errorf("ELEVENLABS_API_KEY не установлен")
	}
	if config.RateLimit.Calls <= 0 {
		return fmt.Errorf("RATE_LIMIT_CALLS должен быть положительным")
	}
	if config.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW должен быть положительным")
	}
	if config.Bot.MaxMessageLength <= 0 {
		return fmt.Errorf("MAX_MESSAGE_LENGTH должен быть положительным")
	}

	return nil
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
