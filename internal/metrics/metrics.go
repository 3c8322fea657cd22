// Package metrics: метрики Prometheus для бота и сада.
// Все счётчики регистрируются в default registry через promauto
// и отдаются HTTP-сервером на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "garden_bot"

// Метки
const (
	LabelSlot   = "slot"
	LabelTier   = "tier"
	LabelReason = "reason"
	LabelRoute  = "route"
)

// Метрики сада
var (
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Отмеченные намазы по вакитам",
		},
		[]string{LabelSlot},
	)

	CompletionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_rejected_total",
			Help:      "Отклонённые отметки (already_today, invalid_slot, not_onboarded)",
		},
		[]string{LabelReason},
	)

	HarvestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "harvests_total",
			Help:      "Собранные урожаи по вакитам и значкам",
		},
		[]string{LabelSlot, LabelTier},
	)

	HarvestNotReady = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "harvest_not_ready_total",
			Help:      "Попытки собрать неготовый урожай",
		},
	)

	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Неудачные попытки сохранить состояние сада",
		},
	)

	RemindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Отправленные ежедневные напоминания",
		},
	)
)

// Метрики бота
var (
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Обработанные апдейты Telegram по маршрутам",
		},
		[]string{LabelRoute},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Сообщения, отброшенные rate limiter-ом",
		},
	)

	PanicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_recovered_total",
			Help:      "Паники, перехваченные middleware",
		},
	)

	UpdateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Время обработки одного апдейта",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
)
