package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		campaignSendsTotal,
		campaignsDispatchedTotal,
	)
}

var (
	campaignSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_sends_total",
			Help: "Individual campaign email sends by outcome.",
		},
		[]string{"outcome"}, // delivered | failed
	)

	campaignsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaigns_dispatched_total",
			Help: "Campaign dispatches by final status.",
		},
		[]string{"status"},
	)
)

func IncCampaignSend(outcome string) {
	campaignSendsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCampaignDispatched(status string) {
	campaignsDispatchedTotal.WithLabelValues(norm(status)).Inc()
}
