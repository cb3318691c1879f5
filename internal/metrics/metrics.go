// Package metrics счетчики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "parking"

// Отчеты водителей
var (
	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Driver reports by outcome",
		},
		[]string{"outcome"},
	)

	LotActivationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lot_activations_total",
			Help:      "Lots switched to available by driver reports",
		},
	)
)

// Уведомления
var (
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification dispatch attempts by result",
		},
		[]string{"result"},
	)

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Messages delivered to the messaging provider by result",
		},
		[]string{"result"},
	)
)

// Реферальная программа и доступ
var (
	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "referral_redemptions_total",
			Help:      "Referral code redemptions by result",
		},
		[]string{"result"},
	)

	AccessChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_checks_total",
			Help:      "Premium access checks by result",
		},
		[]string{"result"},
	)
)

// HTTP
var (
	HTTPRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
	)
)

// Result значение метки result.
func Result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
