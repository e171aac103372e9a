package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	UpdateProcessingTime prometheus.Histogram
	DuplicatesDiscarded  prometheus.Counter
	UpdatesDropped       prometheus.Counter
	ErrorsTotal          prometheus.Counter
	TasksCreated         *prometheus.CounterVec
	StatusChanges        *prometheus.CounterVec
	FilesUploaded        prometheus.Counter
	FileUploadErrors     prometheus.Counter
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		DuplicatesDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_duplicate_updates_total",
			Help: "Updates discarded by the dedup window",
		}),

		UpdatesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_dropped_updates_total",
			Help: "Updates dropped because a user queue overflowed",
		}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of handler panics",
		}),

		TasksCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_tasks_created_total",
			Help: "Total number of tasks created",
		}, []string{"priority"}),

		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_task_status_changes_total",
			Help: "Total number of task status transitions",
		}, []string{"status"}),

		FilesUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_files_uploaded_total",
			Help: "Attachments stored successfully",
		}),

		FileUploadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_file_upload_errors_total",
			Help: "Attachment uploads that failed",
		}),
	}
}
