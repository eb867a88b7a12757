/**
 * @description
 * This file defines the AccessScan ledger entry, the scan decision returned to
 * kiosks, and the closed reason-code enumeration shared by the API responses
 * and the stored records. The enum is defined once here so the codes cannot
 * drift between the ledger, the HTTP surface, and operator-facing messages.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Scan outcomes.
const (
	OutcomeGranted = "granted"
	OutcomeDenied  = "denied"
)

// ReasonCode identifies why a scan was denied. Stable: stored in the ledger
// and branched on by the frontend.
type ReasonCode string

const (
	ReasonCredentialInvalid        ReasonCode = "CREDENTIAL_INVALID"
	ReasonMemberInactive           ReasonCode = "MEMBER_INACTIVE"
	ReasonMemberSuspended          ReasonCode = "MEMBER_SUSPENDED"
	ReasonNoSubscription           ReasonCode = "NO_SUBSCRIPTION"
	ReasonSubscriptionUnpaid       ReasonCode = "SUBSCRIPTION_UNPAID"
	ReasonSubscriptionExpired      ReasonCode = "SUBSCRIPTION_EXPIRED"
	ReasonNoHealthCertificate      ReasonCode = "NO_HEALTH_CERTIFICATE"
	ReasonHealthCertificateExpired ReasonCode = "HEALTH_CERTIFICATE_EXPIRED"
	ReasonManualOverride           ReasonCode = "MANUAL_OVERRIDE"
)

var reasonMessages = map[ReasonCode]string{
	ReasonCredentialInvalid:        "Credential not recognized",
	ReasonMemberInactive:           "Member account is inactive",
	ReasonMemberSuspended:          "Member is suspended",
	ReasonNoSubscription:           "Member has no subscription",
	ReasonSubscriptionUnpaid:       "Subscription has not been paid",
	ReasonSubscriptionExpired:      "Subscription has expired",
	ReasonNoHealthCertificate:      "Member has no health certificate",
	ReasonHealthCertificateExpired: "Health certificate has expired",
	ReasonManualOverride:           "Entry revoked manually by an operator",
}

// Message returns the stable human-readable text for the code.
func (r ReasonCode) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// AccessScan is an append-only audit record of one scan decision. Once
// written, only the manual-override fields may change, and only once.
type AccessScan struct {
	ID             uuid.UUID   `json:"id"`
	MemberID       *uuid.UUID  `json:"member_id,omitempty"`
	SubscriptionID *uuid.UUID  `json:"subscription_id,omitempty"`
	Outcome        string      `json:"outcome"`
	ReasonCode     *ReasonCode `json:"reason_code,omitempty"`
	OperatorID     uuid.UUID   `json:"operator_id"`
	Note           string      `json:"note,omitempty"`
	ScannedAt      time.Time   `json:"scanned_at"`

	OverriddenManually bool       `json:"overridden_manually"`
	OverriddenBy       *uuid.UUID `json:"overridden_by,omitempty"`
	OverriddenAt       *time.Time `json:"overridden_at,omitempty"`
	OverrideReason     *string    `json:"override_reason,omitempty"`

	// Denormalized for ledger listings; not part of the audit record proper.
	MemberName       *string `json:"member_name,omitempty"`
	MemberNationalID *string `json:"member_national_id,omitempty"`
}

// ScanDecision is the engine's result for one scanned credential.
type ScanDecision struct {
	Granted       bool           `json:"granted"`
	ReasonCode    *ReasonCode    `json:"reason_code"`
	ReasonMessage string         `json:"reason_message,omitempty"`
	Member        *MemberSummary `json:"member"`
	ScanID        uuid.UUID      `json:"scan_id"`
}

// ScanRequest is the kiosk payload for POST /scans.
type ScanRequest struct {
	Credential string `json:"credential"`
	Note       string `json:"note,omitempty"`
}

// OverrideScanRequest carries the operator's justification for retroactively
// denying a granted scan.
type OverrideScanRequest struct {
	Reason string `json:"reason"`
}

// ScanListOptions filters the ledger query surface. Date bounds are inclusive
// day boundaries, interpreted in facility-local time and stored as UTC.
type ScanListOptions struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Outcome  string
	Search   string
	Page     int
	PageSize int
}

// ScanPage is one page of ledger entries, newest first.
type ScanPage struct {
	Scans      []AccessScan `json:"scans"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalCount int          `json:"total_count"`
}

// ScanStats is the thin reporting projection over the ledger.
type ScanStats struct {
	Total    int                `json:"total"`
	Granted  int                `json:"granted"`
	Denied   int                `json:"denied"`
	ByReason map[ReasonCode]int `json:"by_reason"`
}
