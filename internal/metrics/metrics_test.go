package metrics

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

// Метрики регистрируются в Prometheus один раз на процесс
var testMetrics = New(zap.NewNop())

func TestMetrics(t *testing.T) {
	m := testMetrics

	// Test counter increment
	m.IncrementCounter("bot_messages_total", "text")

	// Test histogram observe
	m.ObserveHistogram("tts_synthesis_seconds", 1.5)

	// Test high-level methods
	m.RecordMessage("start")
	m.RecordSynthesis(true, 120, 2.0)
	m.RecordSynthesis(false, 0, 0.5)
	m.RecordStoreFallback("rate_limiter")
	m.RecordRateDenial()
}

func TestHealthHandler(t *testing.T) {
	h := NewHandler(testMetrics, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HealthHandler(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 200 {
		t.Errorf("ожидался статус 200, получен %d", rec.Code)
	}

	var body struct {
		Status        string `json:"status"`
		Service       string `json:"service"`
		UptimeSeconds int64  `json:"uptime_seconds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("ошибка разбора ответа: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("неожиданный статус: %s", body.Status)
	}
	if body.Service != "golos-bot" {
		t.Errorf("неожиданное имя сервиса: %s", body.Service)
	}
}
