package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счётчики жизненного цикла пользователей и потоков.
var (
	// UsersCreated — количество заведённых пользователей.
	UsersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admitto_users_created_total",
		Help: "Total users created",
	})

	// UsersDeleted — количество удалённых пользователей.
	UsersDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admitto_users_deleted_total",
		Help: "Total users deleted",
	})

	// TasksCompleted — количество выполненных задач.
	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admitto_tasks_completed_total",
		Help: "Total tasks completed",
	})

	// StepsCompleted — количество полностью выполненных шагов.
	StepsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admitto_steps_completed_total",
		Help: "Total steps completed",
	})

	// FlowsCompleted — количество потоков, дошедших до конца.
	FlowsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admitto_flows_completed_total",
		Help: "Total flows completed",
	})

	// ConditionFailures — количество отказов условий при выполнении задач.
	ConditionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admitto_condition_failures_total",
		Help: "Total task completions rejected by a condition",
	})

	// RemindersPublished — количество опубликованных напоминаний.
	RemindersPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admitto_reminders_published_total",
		Help: "Total idle-flow reminders published",
	})
)

// Метрики HTTP слоя. Label pattern — зарегистрированный шаблон маршрута,
// а не фактический путь, чтобы не раздувать кардинальность.
var (
	// HTTPRequests — счётчик HTTP запросов по маршруту и статусу.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admitto_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "pattern", "status"})

	// HTTPDuration — гистограмма времени обработки запроса.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admitto_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "pattern"})
)
