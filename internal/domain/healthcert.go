/**
 * @description
 * This file defines the HealthCertificate domain model. Each member has at
 * most one certificate row; renewal mutates the issue/expiry window in place
 * and resets the expiry-alert flags instead of creating a new record.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bounds for the configurable certificate validity length, in days.
const (
	CertificateMinValidityDays = 1
	CertificateMaxValidityDays = 365
)

// HealthCertificate is a member's medical clearance for facility access.
type HealthCertificate struct {
	ID           uuid.UUID  `json:"id"`
	MemberID     uuid.UUID  `json:"member_id"`
	IssuedAt     time.Time  `json:"issued_at"`
	ValidityDays int        `json:"validity_days"`
	ExpiresAt    time.Time  `json:"expires_at"`
	Vigente      bool       `json:"vigente"`
	IssuedBy     uuid.UUID  `json:"issued_by"`
	Notes        string     `json:"notes,omitempty"`
	AlertSent    bool       `json:"alert_sent"`
	AlertSentAt  *time.Time `json:"alert_sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ValidForAccess reports whether the certificate clears the member at the
// given instant. It checks the expiry date directly rather than trusting the
// stored vigente flag alone, so access decisions never depend on sweep timing.
func (c *HealthCertificate) ValidForAccess(now time.Time) bool {
	if c == nil {
		return false
	}
	return c.Vigente && !c.ExpiresAt.Before(now)
}

// DaysRemaining returns ceil((expiry - now) / 24h), negative once expired.
func (c *HealthCertificate) DaysRemaining(now time.Time) int {
	return daysUntil(c.ExpiresAt, now)
}

// CreateCertificateRequest is the payload for issuing or renewing a member's
// health certificate. ValidityDays defaults to the facility setting when zero.
type CreateCertificateRequest struct {
	MemberID     uuid.UUID `json:"member_id"`
	ValidityDays int       `json:"validity_days,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}
