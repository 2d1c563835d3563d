package bot

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"golos-bot/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestVoiceListMarksCurrent(t *testing.T) {
	m := NewMessages()
	voices := []models.Voice{
		{VoiceID: "a", Name: "George"},
		{VoiceID: "b", Name: "Sarah"},
	}

	text := m.VoiceList(voices, "b")
	assert.Contains(t, text, "Sarah")
	assert.Contains(t, text, "текущий")
	assert.Contains(t, text, "• George")
}

func TestVoiceListCapped(t *testing.T) {
	m := NewMessages()
	var voices []models.Voice
	for i := 0; i < 30; i++ {
		voices = append(voices, models.Voice{VoiceID: fmt.Sprintf("id%d", i), Name: fmt.Sprintf("Voice%d", i)})
	}

	text := m.VoiceList(voices, "")
	assert.Equal(t, maxVoicesShown, strings.Count(text, "• "))
	assert.NotContains(t, text, "Voice20")
}

func TestSettingsShowsRateStatus(t *testing.T) {
	m := NewMessages()
	pref := &models.UserPreference{
		VoiceName:       "George",
		Stability:       0.5,
		SimilarityBoost: 0.75,
	}
	status := &models.RateStatus{Count: 3, Remaining: 40 * time.Second}

	text := m.Settings(pref, "eleven_multilingual_v2", 2500, StorageRedis, status, 10)
	assert.Contains(t, text, "George")
	assert.Contains(t, text, "eleven_multilingual_v2")
	assert.Contains(t, text, "2500")
	assert.Contains(t, text, "Redis")
	assert.Contains(t, text, "3 из 10")
	assert.Contains(t, text, "41 сек")
}
