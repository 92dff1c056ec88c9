package model

import (
	"time"

	"paintball2go-backend/internal/domain"
)

type WaiverStatus string

const (
	WaiverStatusActive  WaiverStatus = "active"
	WaiverStatusExpired WaiverStatus = "expired"
	WaiverStatusRevoked WaiverStatus = "revoked"
)

// WaiverVersion tags which release of the liability text was signed.
const WaiverVersion = "1.0"

// AdultAge is the age at which a participant no longer needs a guardian.
const AdultAge = 18

// WaiverValidity is how long a signed waiver remains valid by default.
// Expressed in calendar years, applied with AddDate.
const WaiverValidityYears = 1

type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
}

type ParticipantInfo struct {
	Name        string
	Email       string
	Phone       string
	DateOfBirth time.Time
	Address     Address
}

type GuardianInfo struct {
	Name         string
	Email        string
	Phone        string
	Relationship string
}

type EmergencyContact struct {
	Name         string
	Phone        string
	Relationship string
}

type MedicalInfo struct {
	Conditions  string
	Medications string
	Allergies   string
}

// SignatureRecord captures the signing event. The signature blob is encrypted
// at rest by the repository layer.
type SignatureRecord struct {
	Signature string
	SignedAt  time.Time
	IPAddress string
	UserAgent string
}

// Waiver is a signed liability release for one participant, time-boxed and
// covering a specific set of activities.
type Waiver struct {
	ID                  string
	UserID              *string // nil when signed by a guest
	Participant         ParticipantInfo
	Guardian            *GuardianInfo // required when IsMinor
	Emergency           EmergencyContact
	Medical             MedicalInfo
	Activities          []Activity
	Signature           SignatureRecord
	AgreedToTerms       bool
	AgreedToPhotography bool
	IsMinor             bool
	Version             string
	Status              WaiverStatus
	ExpiresAt           time.Time
	BookingIDs          []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsMinorAt reports whether someone born on dob is under AdultAge at now.
// A participant whose 18th birthday is exactly today is an adult.
func IsMinorAt(dob, now time.Time) bool {
	cutoff := now.AddDate(-AdultAge, 0, 0)
	return dob.After(cutoff)
}

// RecomputeDerived refreshes IsMinor and the default expiry. It runs on every
// save, not just creation: resaving with a new date of birth re-derives minor
// status, and a zero ExpiresAt picks up the default window again.
func (w *Waiver) RecomputeDerived(now time.Time) {
	w.IsMinor = IsMinorAt(w.Participant.DateOfBirth, now)
	if w.ExpiresAt.IsZero() {
		base := w.CreatedAt
		if base.IsZero() {
			base = now
		}
		w.ExpiresAt = base.AddDate(WaiverValidityYears, 0, 0)
	}
}

// Validate checks required fields and the guardian rule for minors.
func (w *Waiver) Validate(now time.Time) error {
	p := w.Participant
	if p.Name == "" || p.Email == "" || p.Phone == "" || p.DateOfBirth.IsZero() {
		return domain.ErrInvalidArgument
	}
	if p.Address.Street == "" || p.Address.City == "" || p.Address.State == "" || p.Address.ZipCode == "" {
		return domain.ErrInvalidArgument
	}
	if w.Emergency.Name == "" || w.Emergency.Phone == "" || w.Emergency.Relationship == "" {
		return domain.ErrInvalidArgument
	}
	if w.Signature.Signature == "" || w.Signature.IPAddress == "" {
		return domain.ErrInvalidArgument
	}
	if !w.AgreedToTerms {
		return domain.ErrInvalidArgument
	}
	if len(w.Activities) == 0 {
		return domain.ErrInvalidArgument
	}
	for _, a := range w.Activities {
		if !a.Valid() {
			return domain.ErrUnknownActivity
		}
	}
	if IsMinorAt(p.DateOfBirth, now) {
		if w.Guardian == nil || w.Guardian.Name == "" || w.Guardian.Phone == "" {
			return domain.ErrGuardianRequired
		}
	}
	return nil
}

// IsValidAt reports whether the waiver currently gates activities: active
// status and not yet expired.
func (w *Waiver) IsValidAt(now time.Time) bool {
	return w.Status == WaiverStatusActive && w.ExpiresAt.After(now)
}

// Covers reports whether the waiver's activity set includes the activity.
func (w *Waiver) Covers(activity Activity) bool {
	for _, a := range w.Activities {
		if a == activity {
			return true
		}
	}
	return false
}

// ExtendActivities adds new activities to the covered set without re-signing.
// Only permitted while the waiver is still valid.
func (w *Waiver) ExtendActivities(now time.Time, add ...Activity) error {
	if !w.IsValidAt(now) {
		return domain.ErrWaiverNotActive
	}
	for _, a := range add {
		if !a.Valid() {
			return domain.ErrUnknownActivity
		}
		if !w.Covers(a) {
			w.Activities = append(w.Activities, a)
		}
	}
	w.UpdatedAt = now
	return nil
}
