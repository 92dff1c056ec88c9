package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		bookingsTotal,
		bookingRevenueTotal,
	)
}

var (
	bookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking lifecycle events by activity and status.",
		},
		[]string{"activity", "status"},
	)

	bookingRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_revenue_cents_total",
			Help: "Quoted booking revenue in cents, labeled by activity.",
		},
		[]string{"activity"},
	)
)

func IncBooking(activity, status string) {
	bookingsTotal.WithLabelValues(norm(activity), norm(status)).Inc()
}

func AddBookingRevenue(activity string, cents int64) {
	bookingRevenueTotal.WithLabelValues(norm(activity)).Add(float64(cents))
}
