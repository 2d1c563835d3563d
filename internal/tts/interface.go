package tts

import (
	"context"

	"golos-bot/pkg/models"
)

// Service интерфейс для синтеза речи
type Service interface {
	// Synthesize преобразует текст в аудио с параметрами голоса пользователя
	Synthesize(ctx context.Context, text string, pref *models.UserPreference) ([]byte, error)
	// ListVoices возвращает доступные голоса
	ListVoices(ctx context.Context) ([]models.Voice, error)
}
