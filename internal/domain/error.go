package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrConflict           = errors.New("conflicting state")
	ErrUnauthorized       = errors.New("missing or invalid credentials")
	ErrForbidden          = errors.New("operation not permitted")
	ErrUpstream           = errors.New("upstream collaborator failed")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid query execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Booking lifecycle
	ErrInvalidTransition  = errors.New("illegal status transition")
	ErrCancellationClosed = errors.New("booking can no longer be cancelled")

	// Invoice lifecycle
	ErrInvoiceNotPayable  = errors.New("invoice is not currently payable")
	ErrInvoiceImmutable   = errors.New("paid invoices cannot be modified")
	ErrPaymentIntentMatch = errors.New("payment intent does not match invoice")

	// Subscription lifecycle
	ErrActiveSubscriptionExists = errors.New("user already has an active subscription")
	ErrUsageExhausted           = errors.New("session allowance exhausted")

	// Waiver lifecycle
	ErrWaiverNotActive  = errors.New("waiver is not active")
	ErrGuardianRequired = errors.New("parent or guardian details required for minors")
	ErrUnknownActivity  = errors.New("unknown activity type")

	// Campaign dispatch
	ErrNoRecipients       = errors.New("campaign resolved zero recipients")
	ErrCampaignNotInDraft = errors.New("campaign is not in draft state")
)
