package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golos-bot/pkg/models"
)

// MemoryStore реализует Store в памяти процесса. Используется, когда Redis
// не настроен или недоступен: семантика та же, но данные живут до рестарта
// и не разделяются между инстансами.
type MemoryStore struct {
	mu  sync.Mutex
	now func() time.Time

	prefs     map[int64]*models.UserPreference
	windows   map[int64]*memoryRateWindow
	voices    []models.Voice
	voicesExp time.Time
	usage     map[string]int64
}

type memoryRateWindow struct {
	start  time.Time
	window time.Duration
	count  int64
}

// NewMemoryStore создает хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock создает хранилище в памяти с заданными часами.
// Используется в тестах для детерминированной проверки истечения окон и TTL.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		now:     now,
		prefs:   make(map[int64]*models.UserPreference),
		windows: make(map[int64]*memoryRateWindow),
		usage:   make(map[string]int64),
	}
}

// Settings возвращает репозиторий настроек пользователей
func (m *MemoryStore) Settings() SettingsRepository {
	return &memorySettingsRepository{m}
}

// RateWindow возвращает репозиторий окон rate limit
func (m *MemoryStore) RateWindow() RateWindowRepository {
	return &memoryRateWindowRepository{m}
}

// VoiceCache возвращает репозиторий кэша голосов
func (m *MemoryStore) VoiceCache() VoiceCacheRepository {
	return &memoryVoiceCacheRepository{m}
}

// Usage возвращает репозиторий счетчиков использования
func (m *MemoryStore) Usage() UsageRepository {
	return &memoryUsageRepository{m}
}

// Ping всегда успешен: память процесса доступна
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close освобождает хранилище
func (m *MemoryStore) Close() error {
	return nil
}

type memorySettingsRepository struct {
	m *MemoryStore
}

func (r *memorySettingsRepository) Get(ctx context.Context, userID int64) (*models.UserPreference, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	pref, ok := r.m.prefs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return pref.Clone(), nil
}

// Set сохраняет настройки пользователя. TTL в памяти не отслеживается:
// записи живут до конца процесса.
func (r *memorySettingsRepository) Set(ctx context.Context, pref *models.UserPreference, ttl time.Duration) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.prefs[pref.UserID] = pref.Clone()
	return nil
}

type memoryRateWindowRepository struct {
	m *MemoryStore
}

func (r *memoryRateWindowRepository) Incr(ctx context.Context, userID int64, window time.Duration) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	now := r.m.now()
	w := r.m.windows[userID]
	if w == nil || now.Sub(w.start) >= w.window {
		r.m.windows[userID] = &memoryRateWindow{start: now, window: window, count: 1}
		return 1, nil
	}

	w.count++
	return w.count, nil
}

func (r *memoryRateWindowRepository) Status(ctx context.Context, userID int64) (*models.RateStatus, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	now := r.m.now()
	w := r.m.windows[userID]
	if w == nil || now.Sub(w.start) >= w.window {
		return &models.RateStatus{}, nil
	}

	return &models.RateStatus{
		Count:     w.count,
		Remaining: w.start.Add(w.window).Sub(now),
	}, nil
}

type memoryVoiceCacheRepository struct {
	m *MemoryStore
}

func (r *memoryVoiceCacheRepository) Get(ctx context.Context) ([]models.Voice, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if r.m.voices == nil || r.m.now().After(r.m.voicesExp) {
		return nil, ErrNotFound
	}

	out := make([]models.Voice, len(r.m.voices))
	copy(out, r.m.voices)
	return out, nil
}

func (r *memoryVoiceCacheRepository) Set(ctx context.Context, voices []models.Voice, ttl time.Duration) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.voices = make([]models.Voice, len(voices))
	copy(r.m.voices, voices)
	r.m.voicesExp = r.m.now().Add(ttl)
	return nil
}

type memoryUsageRepository struct {
	m *MemoryStore
}

func (r *memoryUsageRepository) Increment(ctx context.Context, metric string, amount int64, userID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.usage[metric] += amount
	if userID != 0 {
		r.m.usage[fmt.Sprintf("user:%d:%s", userID, metric)] += amount
	}
	return nil
}

func (r *memoryUsageRepository) Totals(ctx context.Context) (models.UsageStats, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stats := models.UsageStats{}
	for metric, value := range r.m.usage {
		// Пользовательские счетчики в глобальную сводку не входят
		if strings.Contains(metric, ":") {
			continue
		}
		stats[metric] = value
	}
	return stats, nil
}
