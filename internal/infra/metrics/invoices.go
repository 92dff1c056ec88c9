package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		invoicesTotal,
		invoiceRevenueTotal,
	)
}

var (
	invoicesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoices_total",
			Help: "Invoices by status (issued/sent/paid/overdue/cancelled).",
		},
		[]string{"status"},
	)

	invoiceRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_revenue_cents_total",
			Help: "The total monetary value of paid invoices, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncInvoice(status string) {
	invoicesTotal.WithLabelValues(norm(status)).Inc()
}

func AddInvoiceRevenue(currency string, cents int64) {
	invoiceRevenueTotal.WithLabelValues(norm(currency)).Add(float64(cents))
}
