/**
 * @description
 * This file defines the core application service for the access-control
 * backend and the validation/conflict sentinels it surfaces to the API layer.
 * The service composes the subscription and certificate lifecycles, the scan
 * decision engine, the ledger operations, and the plan catalog.
 */
package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
	"github.com/juanelvasco/piletaTIP-sub000/internal/store"
)

var (
	ErrEmptyCredential       = errors.New("credential must not be empty")
	ErrInvalidValidityDays   = errors.New("validity days must be between 1 and 365")
	ErrInvalidMemberData     = errors.New("full name and national id are required")
	ErrInvalidRole           = errors.New("unknown member role")
	ErrInvalidPaymentMethod  = errors.New("payment method is required")
	ErrInvalidOverrideReason = errors.New("override reason is required")
	ErrPlanInactive          = errors.New("plan is not active")
	ErrInvalidPlanData       = errors.New("plan name and a positive duration are required")
	ErrLastActivePlan        = errors.New("cannot remove or deactivate the last active plan")
	ErrSubscriptionOwnership = errors.New("subscription does not belong to this member")
	ErrScanRateLimited       = errors.New("scan rate limit exceeded")
)

// EventPublisher abstracts the RabbitMQ producer so the service can run (and
// be tested) without a broker. Publishing is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// ScanRateLimiter throttles scan traffic per operator. A nil limiter disables
// throttling.
type ScanRateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// EventsExchange is the durable topic exchange all service events go to.
const EventsExchange = "pileta.events"

// Service provides the business logic for the access-control backend.
type Service struct {
	repo     store.Repository
	producer EventPublisher

	limiter             ScanRateLimiter
	scanRateLimitPerMin int
}

// NewService creates a new access service.
func NewService(repo store.Repository, producer EventPublisher) *Service {
	return &Service{repo: repo, producer: producer}
}

// SetScanRateLimiter installs a per-operator throttle on the scan endpoint.
func (s *Service) SetScanRateLimiter(limiter ScanRateLimiter, perMinute int) {
	s.limiter = limiter
	s.scanRateLimitPerMin = perMinute
}

// EnsureDefaults creates the facility settings row when missing. Called at
// startup so initialization is explicit rather than lazy-on-first-read.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	return s.repo.EnsureSettings(ctx, domain.DefaultFacilitySettings())
}

// Settings returns the facility settings singleton.
func (s *Service) Settings(ctx context.Context) (*domain.FacilitySettings, error) {
	return s.repo.GetSettings(ctx)
}

// publish sends an event without failing the caller; delivery is best-effort.
func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, EventsExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=app msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}
