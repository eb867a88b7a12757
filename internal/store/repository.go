/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the access service needs. Defining an interface decouples the
 * lifecycles and the decision engine from PostgreSQL and lets tests substitute
 * lightweight stubs.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For entity identities.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Member methods
	CreateMember(ctx context.Context, member *domain.Member) error
	FindMemberByID(ctx context.Context, memberID uuid.UUID) (*domain.Member, error)
	FindMemberByCredential(ctx context.Context, credential string) (*domain.Member, error)
	UpdateMemberSuspension(ctx context.Context, memberID uuid.UUID, suspended bool, reason *string, at *time.Time) error
	UpdateMemberCredential(ctx context.Context, memberID uuid.UUID, credential string) error
	// SetCurrentSubscription is the single writer of the member's
	// current-subscription pointer.
	SetCurrentSubscription(ctx context.Context, memberID uuid.UUID, subscriptionID uuid.UUID) error

	// Plan catalog methods
	CreatePlan(ctx context.Context, plan *domain.Plan) error
	UpdatePlan(ctx context.Context, plan *domain.Plan) error
	FindPlanByID(ctx context.Context, planID uuid.UUID) (*domain.Plan, error)
	ListPlans(ctx context.Context, includeInactive bool) ([]domain.Plan, error)
	CountActivePlans(ctx context.Context) (int, error)
	DeletePlan(ctx context.Context, planID uuid.UUID) error

	// Subscription methods
	CreateSubscription(ctx context.Context, sub *domain.Subscription) error
	FindSubscriptionByID(ctx context.Context, subscriptionID uuid.UUID) (*domain.Subscription, error)
	// MarkSubscriptionPaid flips paid/active in one conditional statement;
	// zero rows affected surfaces ErrSubscriptionAlreadyPaid.
	MarkSubscriptionPaid(ctx context.Context, subscriptionID uuid.UUID, paymentMethod string, externalPaymentID *string, paidAt time.Time) (*domain.Subscription, error)
	DeactivateExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error)
	FindSubscriptionsExpiringWithin(ctx context.Context, now, deadline time.Time) ([]domain.Subscription, error)
	MarkSubscriptionAlertSent(ctx context.Context, subscriptionID uuid.UUID, at time.Time) error

	// Health certificate methods
	CreateCertificate(ctx context.Context, cert *domain.HealthCertificate) error
	RenewCertificate(ctx context.Context, cert *domain.HealthCertificate) error
	FindCertificateByMemberID(ctx context.Context, memberID uuid.UUID) (*domain.HealthCertificate, error)
	FindCertificateByID(ctx context.Context, certificateID uuid.UUID) (*domain.HealthCertificate, error)
	MarkExpiredCertificatesStale(ctx context.Context, now time.Time) (int64, error)
	FindCertificatesExpiringWithin(ctx context.Context, now, deadline time.Time) ([]domain.HealthCertificate, error)
	MarkCertificateAlertSent(ctx context.Context, certificateID uuid.UUID, at time.Time) error

	// Scan ledger methods
	CreateScan(ctx context.Context, scan *domain.AccessScan) error
	FindScanByID(ctx context.Context, scanID uuid.UUID) (*domain.AccessScan, error)
	// OverrideScan applies the one-shot manual override atomically; zero rows
	// affected surfaces ErrScanNotOverridable.
	OverrideScan(ctx context.Context, scanID uuid.UUID, operatorID uuid.UUID, reason string, at time.Time) (*domain.AccessScan, error)
	ListScans(ctx context.Context, opts domain.ScanListOptions) (*domain.ScanPage, error)
	GetScanStats(ctx context.Context, dateFrom, dateTo *time.Time) (*domain.ScanStats, error)

	// Facility settings methods
	EnsureSettings(ctx context.Context, defaults domain.FacilitySettings) error
	GetSettings(ctx context.Context) (*domain.FacilitySettings, error)
}
