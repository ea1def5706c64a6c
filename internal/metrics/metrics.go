package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tts-synth/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// Metrics содержит все метрики приложения.
// Используется собственный реестр: процесс живет один запуск, метрики выгружаются в конце.
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	pushURL  string
	job      string
	textfile string

	// Счетчики
	modelLoads     *prometheus.CounterVec
	synthesisTotal *prometheus.CounterVec

	// Гистограммы
	modelLoadTime *prometheus.HistogramVec
	synthesisTime *prometheus.HistogramVec
	audioBytes    prometheus.Histogram

	// Gauge метрики
	lastSuccess prometheus.Gauge

	// Мьютекс для thread-safety
	mu sync.Mutex
}

// New создает новый экземпляр метрик
func New(logger *zap.Logger, cfg config.MetricsConfig) *Metrics {
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		pushURL:  cfg.PushgatewayURL,
		job:      cfg.Job,
		textfile: cfg.TextfilePath,

		modelLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_model_loads_total",
				Help: "Количество загрузок TTS модели",
			},
			[]string{"backend", "status"}, // status: success, failed
		),

		synthesisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_synthesis_total",
				Help: "Количество запросов синтеза речи",
			},
			[]string{"backend", "status"},
		),

		modelLoadTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tts_model_load_seconds",
				Help:    "Время загрузки TTS модели в секундах",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"backend"},
		),

		synthesisTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tts_synthesis_seconds",
				Help:    "Время синтеза речи в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),

		audioBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tts_audio_bytes",
				Help:    "Размер сгенерированного аудио в байтах",
				Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tts_last_success_timestamp_seconds",
				Help: "Timestamp последнего успешного синтеза",
			},
		),
	}

	// Регистрируем все метрики
	m.registry.MustRegister(
		m.modelLoads,
		m.synthesisTotal,
		m.modelLoadTime,
		m.synthesisTime,
		m.audioBytes,
		m.lastSuccess,
	)

	return m
}

// RecordModelLoad записывает результат загрузки модели
func (m *Metrics) RecordModelLoad(backend string, success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.modelLoads.WithLabelValues(backend, status(success)).Inc()
	m.modelLoadTime.WithLabelValues(backend).Observe(duration.Seconds())

	m.logger.Debug("метрика загрузки модели записана",
		zap.String("backend", backend),
		zap.Bool("success", success),
		zap.Duration("duration", duration))
}

// RecordSynthesis записывает результат синтеза
func (m *Metrics) RecordSynthesis(backend string, success bool, duration time.Duration, size int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.synthesisTotal.WithLabelValues(backend, status(success)).Inc()
	m.synthesisTime.WithLabelValues(backend).Observe(duration.Seconds())
	if success {
		m.audioBytes.Observe(float64(size))
		m.lastSuccess.SetToCurrentTime()
	}

	m.logger.Debug("метрика синтеза записана",
		zap.String("backend", backend),
		zap.Bool("success", success),
		zap.Int("audio_size", size))
}

// Export выгружает метрики в Pushgateway и textfile, если они настроены.
// Ошибка одного приемника не мешает выгрузке в другой.
func (m *Metrics) Export(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.pushURL != "" {
		if err := push.New(m.pushURL, m.job).Gatherer(m.registry).PushContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ошибка отправки метрик в pushgateway: %w", err))
		} else {
			m.logger.Debug("метрики отправлены в pushgateway",
				zap.String("url", m.pushURL),
				zap.String("job", m.job))
		}
	}
	if m.textfile != "" {
		if err := prometheus.WriteToTextfile(m.textfile, m.registry); err != nil {
			errs = append(errs, fmt.Errorf("ошибка записи метрик в %s: %w", m.textfile, err))
		} else {
			m.logger.Debug("метрики записаны в textfile", zap.String("path", m.textfile))
		}
	}

	return errors.Join(errs...)
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
