package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(subscriptionsTotal) }

var subscriptionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "subscriptions_total",
		Help: "Subscription lifecycle events by tier and event.",
	},
	[]string{"tier", "event"}, // event: created | plan_changed | cancelled
)

func IncSubscription(tier, event string) {
	subscriptionsTotal.WithLabelValues(norm(tier), norm(event)).Inc()
}
