/**
 * @description
 * This file defines the Subscription domain model. A subscription belongs to
 * exactly one member, references a plan from the catalog, and carries its own
 * validity window derived from the plan duration at creation time.
 *
 * The stored `active` flag is corrected lazily; access decisions always use
 * ValidForAccess, which treats a stale active=true past the end date as invalid.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment methods accepted at the facility desk.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

// Subscription represents a member's purchased (or pending) access period.
type Subscription struct {
	ID                uuid.UUID  `json:"id"`
	MemberID          uuid.UUID  `json:"member_id"`
	PlanID            uuid.UUID  `json:"plan_id"`
	PlanName          string     `json:"plan_name"`
	PriceCents        int64      `json:"price_cents"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           time.Time  `json:"end_date"`
	Paid              bool       `json:"paid"`
	PaymentMethod     *string    `json:"payment_method,omitempty"`
	ExternalPaymentID *string    `json:"external_payment_id,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	Active            bool       `json:"active"`
	AlertSent         bool       `json:"alert_sent"`
	AlertSentAt       *time.Time `json:"alert_sent_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ValidForAccess reports whether the subscription grants entry at the given
// instant. The end date is an inclusive boundary. The check is independent of
// the stored active flag's staleness: a subscription past its end date is
// invalid even if a sweep has not yet flipped the flag.
func (s *Subscription) ValidForAccess(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.Paid && s.Active && !now.Before(s.StartDate) && !now.After(s.EndDate)
}

// DaysRemaining returns the number of whole-or-partial days until the end
// date, negative once expired.
func (s *Subscription) DaysRemaining(now time.Time) int {
	return daysUntil(s.EndDate, now)
}

// CreateSubscriptionRequest is the payload for creating a subscription.
// PriceCents overrides the catalog price when set.
type CreateSubscriptionRequest struct {
	MemberID   uuid.UUID `json:"member_id"`
	PlanID     uuid.UUID `json:"plan_id"`
	PriceCents *int64    `json:"price_cents,omitempty"`
}

// PaySubscriptionRequest is the payload for marking a subscription paid.
type PaySubscriptionRequest struct {
	PaymentMethod     string  `json:"payment_method"`
	ExternalPaymentID *string `json:"external_payment_id,omitempty"`
}

// daysUntil returns ceil((deadline - now) / 24h). Negative once the deadline
// has passed by a full day or more.
func daysUntil(deadline, now time.Time) int {
	remaining := deadline.Sub(now)
	days := int(remaining / (24 * time.Hour))
	// integer division truncates toward zero, which already is the ceiling
	// for negative durations; positive partial days round up
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}
