/**
 * @description
 * This file defines the Member domain model and the redacted summary returned
 * to kiosk operators alongside every scan decision. The member record carries
 * the opaque scan credential encoded in the QR code and the pointers to the
 * member's current subscription and health certificate.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Member roles. Operators run the entrance kiosks; medical staff issue and
// renew health certificates.
const (
	RoleMember       = "member"
	RoleOperator     = "operator"
	RoleMedicalStaff = "medical-staff"
)

// Member represents a registered facility member.
type Member struct {
	ID                    uuid.UUID  `json:"id"`
	FullName              string     `json:"full_name"`
	NationalID            string     `json:"national_id"`
	Email                 string     `json:"email,omitempty"`
	Phone                 string     `json:"phone,omitempty"`
	PhotoURL              string     `json:"photo_url,omitempty"`
	Credential            string     `json:"credential"`
	Role                  string     `json:"role"`
	Active                bool       `json:"active"`
	Suspended             bool       `json:"suspended"`
	SuspensionReason      *string    `json:"suspension_reason,omitempty"`
	SuspendedAt           *time.Time `json:"suspended_at,omitempty"`
	CurrentSubscriptionID *uuid.UUID `json:"current_subscription_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// MemberSummary is the redacted view of a member returned with every scan
// decision so the operator UI can show full context even on denial.
type MemberSummary struct {
	ID                   uuid.UUID  `json:"id"`
	FullName             string     `json:"full_name"`
	NationalID           string     `json:"national_id"`
	PhotoURL             string     `json:"photo_url,omitempty"`
	SubscriptionPlan     *string    `json:"subscription_plan,omitempty"`
	SubscriptionEndDate  *time.Time `json:"subscription_end_date,omitempty"`
	SubscriptionDaysLeft *int       `json:"subscription_days_left,omitempty"`
	SubscriptionPaid     *bool      `json:"subscription_paid,omitempty"`
	CertificateExpiry    *time.Time `json:"certificate_expiry,omitempty"`
	CertificateDaysLeft  *int       `json:"certificate_days_left,omitempty"`
}

// CreateMemberRequest is the payload for registering a new member.
type CreateMemberRequest struct {
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	PhotoURL   string `json:"photo_url"`
	Role       string `json:"role"`
}

// SuspendMemberRequest carries the operator-supplied suspension reason.
type SuspendMemberRequest struct {
	Reason string `json:"reason"`
}
