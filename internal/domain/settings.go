/**
 * @description
 * This file defines the facility-wide settings singleton. Exactly one row
 * exists; it is created explicitly at process startup (EnsureDefaults) rather
 * than lazily on first read, so initialization order is visible and testable.
 */
package domain

import "time"

// Defaults applied when the settings row is first created.
const (
	DefaultCertValidityDays          = 15
	DefaultCertAlertLeadDays         = 3
	DefaultSubscriptionAlertLeadDays = 5
)

// FacilitySettings holds facility-wide configuration consumed by the
// lifecycles and the alert jobs.
type FacilitySettings struct {
	CertDefaultValidityDays   int       `json:"cert_default_validity_days"`
	CertAlertLeadDays         int       `json:"cert_alert_lead_days"`
	SubscriptionAlertLeadDays int       `json:"subscription_alert_lead_days"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// DefaultFacilitySettings returns the settings applied on first startup.
func DefaultFacilitySettings() FacilitySettings {
	return FacilitySettings{
		CertDefaultValidityDays:   DefaultCertValidityDays,
		CertAlertLeadDays:         DefaultCertAlertLeadDays,
		SubscriptionAlertLeadDays: DefaultSubscriptionAlertLeadDays,
	}
}
