package domain

import (
	"testing"
	"time"
)

func TestCertificateValidForAccess(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		cert HealthCertificate
		want bool
	}{
		{"vigente and unexpired", HealthCertificate{Vigente: true, ExpiresAt: now.AddDate(0, 0, 5)}, true},
		{"expiry instant is still valid", HealthCertificate{Vigente: true, ExpiresAt: now}, true},
		{"expired one second ago", HealthCertificate{Vigente: true, ExpiresAt: now.Add(-time.Second)}, false},
		{"stale vigente flag past expiry", HealthCertificate{Vigente: true, ExpiresAt: now.AddDate(0, 0, -1)}, false},
		{"revoked", HealthCertificate{Vigente: false, ExpiresAt: now.AddDate(0, 0, 5)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cert.ValidForAccess(now); got != tc.want {
				t.Fatalf("ValidForAccess = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCertificateValidForAccess_NilReceiver(t *testing.T) {
	var c *HealthCertificate
	if c.ValidForAccess(time.Now()) {
		t.Fatal("nil certificate must never grant access")
	}
}

func TestCertificateDaysRemaining(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	c := HealthCertificate{ExpiresAt: now.Add(12 * time.Hour)}
	if got := c.DaysRemaining(now); got != 1 {
		t.Fatalf("DaysRemaining = %d, want 1 (partial day rounds up)", got)
	}

	expired := HealthCertificate{ExpiresAt: now.AddDate(0, 0, -4)}
	if got := expired.DaysRemaining(now); got != -4 {
		t.Fatalf("DaysRemaining = %d, want -4", got)
	}
}

func TestReasonCodeMessages(t *testing.T) {
	codes := []ReasonCode{
		ReasonCredentialInvalid, ReasonMemberInactive, ReasonMemberSuspended,
		ReasonNoSubscription, ReasonSubscriptionUnpaid, ReasonSubscriptionExpired,
		ReasonNoHealthCertificate, ReasonHealthCertificateExpired, ReasonManualOverride,
	}
	for _, code := range codes {
		if code.Message() == string(code) {
			t.Fatalf("expected a human-readable message for %s", code)
		}
	}
}
