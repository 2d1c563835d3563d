package models

import "time"

// Значения параметров голоса по умолчанию для новых пользователей
const (
	DefaultStability       = 0.5
	DefaultSimilarityBoost = 0.75
)

// UserPreference содержит настройки озвучки пользователя
type UserPreference struct {
	UserID          int64     `json:"user_id"`
	VoiceID         string    `json:"voice_id"`
	VoiceName       string    `json:"voice_name"`
	Stability       float64   `json:"stability"`
	SimilarityBoost float64   `json:"similarity_boost"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Clone возвращает копию настроек
func (p *UserPreference) Clone() *UserPreference {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// PreferenceUpdate представляет частичное обновление настроек.
// nil-поля остаются без изменений.
type PreferenceUpdate struct {
	VoiceID         *string
	VoiceName       *string
	Stability       *float64
	SimilarityBoost *float64
}

// Apply переносит заполненные поля обновления в настройки
func (u *PreferenceUpdate) Apply(pref *UserPreference) {
	if u.VoiceID != nil {
		pref.VoiceID = *u.VoiceID
	}
	if u.VoiceName != nil {
		pref.VoiceName = *u.VoiceName
	}
	if u.Stability != nil {
		pref.Stability = *u.Stability
	}
	if u.SimilarityBoost != nil {
		pref.SimilarityBoost = *u.SimilarityBoost
	}
}

// Voice описывает голос из каталога ElevenLabs
type Voice struct {
	VoiceID string `json:"voice_id"`
	Name    string `json:"name"`
}

// RateStatus представляет состояние окна rate limit пользователя
type RateStatus struct {
	Count     int64
	Remaining time.Duration
}

// UsageStats содержит глобальные счетчики использования
type UsageStats map[string]int64
