package services

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics содержит все метрики для мониторинга
type Metrics struct {
	registry *prometheus.Registry

	// Счетчики задач
	JobsTotal      *prometheus.CounterVec
	JobsSuccessful prometheus.Counter
	JobsFailed     *prometheus.CounterVec

	// Время выполнения
	JobDuration      prometheus.Histogram
	DownloadDuration prometheus.Histogram
	UploadDuration   prometheus.Histogram
	PollDuration     prometheus.Histogram
	CleanupDuration  prometheus.Histogram

	PollAttempts prometheus.Histogram

	// Размеры файлов
	MediaSizeBytes      prometheus.Histogram
	TranscriptSizeBytes prometheus.Histogram

	// Активные задачи
	ActiveJobs prometheus.Gauge

	// Терминальные статусы транскрибации
	TerminalStatuses *prometheus.CounterVec
}

// NewMetrics создает и регистрирует все метрики в собственном реестре
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcribe_jobs_total",
				Help: "Total number of transcription requests processed",
			},
			[]string{"status"}, // success, failed
		),

		JobsSuccessful: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "transcribe_jobs_successful_total",
				Help: "Total number of successful transcription requests",
			},
		),

		JobsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcribe_jobs_failed_total",
				Help: "Total number of failed transcription requests by error type",
			},
			[]string{"error_type", "operation"}, // download/storage/transcribe, fetch/stage/poll
		),

		JobDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transcribe_job_duration_seconds",
				Help:    "Time taken to process a transcription request end to end",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34m
			},
		),

		DownloadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transcribe_download_duration_seconds",
				Help:    "Time taken to download source media",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),

		UploadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transcribe_upload_duration_seconds",
				Help:    "Time taken to stage media in object storage",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),

		PollDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transcribe_poll_duration_seconds",
				Help:    "Time between job submission and terminal status",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),

		CleanupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transcribe_cleanup_duration_seconds",
				Help:    "Time taken to empty and delete the temporary bucket",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),

		PollAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transcribe_poll_attempts",
				Help:    "Number of status queries until a terminal status",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),

		MediaSizeBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transcribe_media_size_bytes",
				Help:    "Size of downloaded source media",
				Buckets: prometheus.ExponentialBuckets(1024, 2, 20), // 1KB to ~512MB
			},
		),

		TranscriptSizeBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transcribe_transcript_size_bytes",
				Help:    "Size of retrieved transcript documents",
				Buckets: prometheus.ExponentialBuckets(256, 2, 15),
			},
		),

		ActiveJobs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "transcribe_active_jobs",
				Help: "Number of transcription requests currently being processed",
			},
		),

		TerminalStatuses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcribe_terminal_status_total",
				Help: "Count of transcription jobs by terminal status",
			},
			[]string{"status"}, // COMPLETED, FAILED
		),
	}
}

// Registry возвращает реестр для promhttp и Pushgateway
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFailure увеличивает счетчики ошибок по типу и операции
func (m *Metrics) RecordFailure(err error) {
	errType, op := errorLabels(err)
	m.JobsTotal.WithLabelValues("failed").Inc()
	m.JobsFailed.WithLabelValues(string(errType), op).Inc()
}

// RecordSuccess увеличивает счетчики успешных задач
func (m *Metrics) RecordSuccess() {
	m.JobsTotal.WithLabelValues("success").Inc()
	m.JobsSuccessful.Inc()
}

// Push отправляет метрики в Pushgateway (для одноразового запуска)
func (m *Metrics) Push(url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
