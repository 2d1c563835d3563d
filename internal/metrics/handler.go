package metrics

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Handler обрабатывает HTTP запросы для метрик и health check
type Handler struct {
	metrics *Metrics
	logger  *zap.Logger
	started time.Time
}

// NewHandler создает новый обработчик метрик
func NewHandler(metrics *Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
	}
}

// MetricsHandler возвращает HTTP handler для Prometheus метрик
func (h *Handler) MetricsHandler() http.Handler {
	return h.metrics.Handler()
}

// HealthHandler возвращает статус здоровья сервиса и время работы
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	uptime := int64(time.Since(h.started).Seconds())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	body := fmt.Sprintf(`{"status":"ok","service":"golos-bot","uptime_seconds":%d}`, uptime)
	if _, err := w.Write([]byte(body)); err != nil {
		h.logger.Error("ошибка записи ответа health check", zap.Error(err))
	}
}
