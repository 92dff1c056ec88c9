package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"paintball2go-backend/internal/domain"
	red "paintball2go-backend/internal/infra/redis"
	"paintball2go-backend/internal/usecase"
)

type Server struct {
	pricingUC  usecase.PricingUseCase
	bookingUC  usecase.BookingUseCase
	waiverUC   usecase.WaiverUseCase
	invoiceUC  usecase.InvoiceUseCase
	subUC      usecase.SubscriptionUseCase
	campaignUC usecase.CampaignUseCase
	auth       *AuthManager
	limiter    *red.RateLimiter
	log        *zerolog.Logger
}

func NewServer(
	pricingUC usecase.PricingUseCase,
	bookingUC usecase.BookingUseCase,
	waiverUC usecase.WaiverUseCase,
	invoiceUC usecase.InvoiceUseCase,
	subUC usecase.SubscriptionUseCase,
	campaignUC usecase.CampaignUseCase,
	auth *AuthManager,
	limiter *red.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		pricingUC:  pricingUC,
		bookingUC:  bookingUC,
		waiverUC:   waiverUC,
		invoiceUC:  invoiceUC,
		subUC:      subUC,
		campaignUC: campaignUC,
		auth:       auth,
		limiter:    limiter,
		log:        logger,
	}
}

// Router builds the API surface. Public routes carry the principal when a
// token is present; staff routes are gated by role.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.auth.WithPrincipal)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/pricing/quote", s.handleQuote)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", s.handleCreateBooking)
			r.Get("/{id}", s.handleGetBooking)
			r.Post("/{id}/cancel", s.handleCancelBooking)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole("staff"))
				r.Get("/", s.handleListBookings)
				r.Post("/{id}/confirm", s.handleConfirmBooking)
				r.Post("/{id}/start", s.handleStartBooking)
				r.Post("/{id}/complete", s.handleCompleteBooking)
				r.Post("/{id}/refund", s.handleRefundBooking)
			})
		})

		r.Route("/waivers", func(r chi.Router) {
			r.With(s.rateLimit("waivers", 10, time.Minute)).Post("/", s.handleSubmitWaiver)
			r.Get("/valid", s.handleWaiverValid)
			r.Get("/{id}", s.handleGetWaiver)
			r.With(RequireRole("staff")).Post("/{id}/revoke", s.handleRevokeWaiver)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/{id}", s.handleGetInvoice)
			r.Post("/{id}/payment-intent", s.handleInvoiceIntent)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole("staff"))
				r.Post("/", s.handleCreateInvoice)
				r.Post("/{id}/send", s.handleSendInvoice)
				r.Post("/{id}/confirm", s.handleConfirmInvoice)
				r.Post("/{id}/cancel", s.handleCancelInvoice)
				r.Patch("/{id}/notes", s.handleInvoiceNotes)
			})
		})

		r.Get("/plans", s.handleListPlans)
		r.With(RequireRole("admin")).Post("/plans", s.handleCreatePlan)
		r.With(RequireRole("admin")).Delete("/plans/{id}", s.handleDeletePlan)

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", s.handleSubscribe)
			r.Get("/me", s.handleMySubscription)
			r.Post("/{id}/cancel", s.handleCancelSubscription)
			r.Post("/{id}/change-plan", s.handleChangePlan)
			r.Post("/{id}/sessions", s.handleRecordSession)
			r.With(RequireRole("staff")).Get("/stats", s.handleSubscriptionStats)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Use(RequireRole("staff"))
			r.Post("/", s.handleCreateCampaign)
			r.Get("/", s.handleListCampaigns)
			r.Get("/{id}", s.handleGetCampaign)
			r.Post("/{id}/dispatch", s.handleDispatchCampaign)
		})
		r.With(RequireRole("staff")).Post("/templates", s.handleCreateTemplate)

		r.With(s.rateLimit("webhook", 120, time.Minute)).Post("/webhooks/stripe", s.handleStripeWebhook)
	})

	// Open/click tracking is hit from email clients; no auth, no JSON.
	r.Get("/t/open/{id}", s.handleTrackOpen)
	r.Get("/t/click/{id}", s.handleTrackClick)

	return r
}

// rateLimit throttles by client IP with a fixed window. A limiter outage
// fails open so email and webhook traffic is never dropped on a Redis blip.
func (s *Server) rateLimit(route string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter != nil {
				ok, err := s.limiter.Allow(r.Context(), red.ClientKey(r.RemoteAddr, route), limit, window)
				if err != nil {
					s.log.Warn().Err(err).Msg("rate limiter unavailable")
				} else if !ok {
					writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireOwnerOrStaff lets staff through and otherwise checks the resource
// owner against the caller.
func requireOwnerOrStaff(r *http.Request, ownerID *string) error {
	p, ok := principalFrom(r.Context())
	if !ok {
		return domain.ErrUnauthorized
	}
	if p.Role == "staff" || p.Role == "admin" {
		return nil
	}
	if ownerID == nil || *ownerID != p.UserID {
		return domain.ErrForbidden
	}
	return nil
}
