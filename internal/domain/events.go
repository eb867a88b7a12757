/**
 * @description
 * Event payloads published to RabbitMQ. Consumers (notification pipeline,
 * dashboards) are outside this service; delivery is best-effort.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScanRecordedEvent is published after every ledger write, granted or denied.
type ScanRecordedEvent struct {
	ScanID     uuid.UUID   `json:"scan_id"`
	MemberID   *uuid.UUID  `json:"member_id,omitempty"`
	Outcome    string      `json:"outcome"`
	ReasonCode *ReasonCode `json:"reason_code,omitempty"`
	OperatorID uuid.UUID   `json:"operator_id"`
	ScannedAt  time.Time   `json:"scanned_at"`
}

// ScanOverriddenEvent is published when an operator retroactively denies a
// granted scan.
type ScanOverriddenEvent struct {
	ScanID       uuid.UUID `json:"scan_id"`
	OverriddenBy uuid.UUID `json:"overridden_by"`
	Reason       string    `json:"reason"`
	OverriddenAt time.Time `json:"overridden_at"`
}

// CertificateExpiringEvent is published by the alert job for certificates
// inside the configured lead window.
type CertificateExpiringEvent struct {
	CertificateID uuid.UUID `json:"certificate_id"`
	MemberID      uuid.UUID `json:"member_id"`
	ExpiresAt     time.Time `json:"expires_at"`
	DaysRemaining int       `json:"days_remaining"`
}

// SubscriptionExpiringEvent is published by the alert job for paid
// subscriptions inside the configured lead window.
type SubscriptionExpiringEvent struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       uuid.UUID `json:"member_id"`
	EndDate        time.Time `json:"end_date"`
	DaysRemaining  int       `json:"days_remaining"`
}
