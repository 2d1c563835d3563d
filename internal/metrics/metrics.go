package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics содержит все метрики приложения
type Metrics struct {
	logger *zap.Logger

	// Счетчики
	messages       *prometheus.CounterVec
	ttsRequests    *prometheus.CounterVec
	storeFallbacks *prometheus.CounterVec
	rateDenials    prometheus.Counter
	characters     prometheus.Counter

	// Гистограммы
	synthesisTime prometheus.Histogram

	// Мьютекс для thread-safety
	mu sync.RWMutex
}

// New создает новый экземпляр метрик
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger: logger,

		// Счетчики сообщений
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_messages_total",
				Help: "Общее количество обработанных сообщений",
			},
			[]string{"type"}, // text, start, help, settings, stats, voices, setvoice
		),

		// Счетчики запросов синтеза
		ttsRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_requests_total",
				Help: "Общее количество запросов к ElevenLabs",
			},
			[]string{"status"}, // success, failed
		),

		// Счетчики переходов на хранилище в памяти
		storeFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_fallbacks_total",
				Help: "Количество переходов на хранилище в памяти при недоступном Redis",
			},
			[]string{"component"}, // rate_limiter, settings, voice_cache
		),

		// Счетчик отказов rate limiter
		rateDenials: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_limit_denials_total",
				Help: "Количество запросов, отклоненных rate limiter",
			},
		),

		// Счетчик озвученных символов
		characters: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tts_characters_total",
				Help: "Общее количество озвученных символов",
			},
		),

		// Гистограмма времени синтеза
		synthesisTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tts_synthesis_seconds",
				Help:    "Время синтеза речи в секундах",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	// Регистрируем все метрики
	prometheus.MustRegister(
		m.messages,
		m.ttsRequests,
		m.storeFallbacks,
		m.rateDenials,
		m.characters,
		m.synthesisTime,
	)

	return m
}

// IncrementCounter увеличивает счетчик
func (m *Metrics) IncrementCounter(name string, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "bot_messages_total":
		m.messages.WithLabelValues(labels...).Inc()
	case "tts_requests_total":
		m.ttsRequests.WithLabelValues(labels...).Inc()
	case "store_fallbacks_total":
		m.storeFallbacks.WithLabelValues(labels...).Inc()
	case "rate_limit_denials_total":
		m.rateDenials.Inc()
	default:
		m.logger.Error("неизвестная метрика", zap.String("name", name))
		return
	}

	m.logger.Debug("метрика увеличена", zap.String("metric", name), zap.Int("count", len(labels)))
}

// ObserveHistogram добавляет наблюдение в гистограмму
func (m *Metrics) ObserveHistogram(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "tts_synthesis_seconds":
		m.synthesisTime.Observe(value)
	default:
		m.logger.Error("неизвестная гистограмма", zap.String("name", name))
		return
	}

	m.logger.Debug("гистограмма обновлена", zap.String("metric", name), zap.Float64("value", value))
}

// RecordMessage записывает обработанное сообщение
func (m *Metrics) RecordMessage(messageType string) {
	m.IncrementCounter("bot_messages_total", messageType)
}

// RecordSynthesis записывает запрос синтеза речи
func (m *Metrics) RecordSynthesis(success bool, characters int, seconds float64) {
	status := "success"
	if !success {
		status = "failed"
	}

	m.IncrementCounter("tts_requests_total", status)
	if success {
		m.mu.Lock()
		m.characters.Add(float64(characters))
		m.mu.Unlock()
	}
	m.ObserveHistogram("tts_synthesis_seconds", seconds)
}

// RecordStoreFallback записывает переход компонента на хранилище в памяти
func (m *Metrics) RecordStoreFallback(component string) {
	m.IncrementCounter("store_fallbacks_total", component)
}

// RecordRateDenial записывает отказ rate limiter
func (m *Metrics) RecordRateDenial() {
	m.IncrementCounter("rate_limit_denials_total")
}

// Handler возвращает HTTP handler для метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
