package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golos-bot/pkg/models"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ElevenLabsService синтезирует речь через ElevenLabs API
type ElevenLabsService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewElevenLabsService создает клиент ElevenLabs API
func NewElevenLabsService(apiKey, baseURL, model string, logger *zap.Logger) *ElevenLabsService {
	return &ElevenLabsService{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type voicesResponse struct {
	Voices []models.Voice `json:"voices"`
}

// apiError сохраняет статус ответа, чтобы решить, имеет ли смысл повтор
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API вернул статус %d: %s", e.status, e.body)
}

func (e *apiError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// Synthesize отправляет текст на синтез и возвращает аудио (mp3).
// Ошибки 429 и 5xx повторяются с экспоненциальной задержкой, всего до
// трех попыток.
func (s *ElevenLabsService) Synthesize(ctx context.Context, text string, pref *models.UserPreference) ([]byte, error) {
	payload, err := json.Marshal(synthesizeRequest{
		Text:    text,
		ModelID: s.model,
		VoiceSettings: voiceSettings{
			Stability:       pref.Stability,
			SimilarityBoost: pref.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.baseURL, pref.VoiceID)

	var audio []byte
	backoff := retry.WithMaxRetries(2, retry.NewExponential(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("ошибка создания запроса: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("xi-api-key", s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("ошибка отправки запроса: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			apiErr := &apiError{status: resp.StatusCode, body: string(body)}
			if apiErr.retryable() {
				s.logger.Warn("синтез не удался, попытка будет повторена",
					zap.Int("status", resp.StatusCode))
				return retry.RetryableError(apiErr)
			}
			return apiErr
		}

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("ошибка чтения ответа: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка синтеза речи: %w", err)
	}

	s.logger.Debug("синтез завершен",
		zap.String("voice_id", pref.VoiceID),
		zap.Int("characters", len([]rune(text))),
		zap.Int("audio_bytes", len(audio)))

	return audio, nil
}

// ListVoices возвращает каталог голосов аккаунта
func (s *ElevenLabsService) ListVoices(ctx context.Context) ([]models.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &apiError{status: resp.StatusCode, body: string(body)}
	}

	var parsed voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа: %w", err)
	}

	return parsed.Voices, nil
}
