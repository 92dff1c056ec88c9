package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"paintball2go-backend/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the domain error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrUnknownActivity),
		errors.Is(err, domain.ErrGuardianRequired):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrActiveSubscriptionExists),
		errors.Is(err, domain.ErrInvoiceImmutable),
		errors.Is(err, domain.ErrPaymentIntentMatch),
		errors.Is(err, domain.ErrCampaignNotInDraft),
		errors.Is(err, domain.ErrWaiverNotActive):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrCancellationClosed),
		errors.Is(err, domain.ErrInvoiceNotPayable),
		errors.Is(err, domain.ErrUsageExhausted),
		errors.Is(err, domain.ErrNoRecipients):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUpstream):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
