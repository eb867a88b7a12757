/**
 * @description
 * Subscription lifecycle: creation against the plan catalog and the payment
 * transition. Validity for access is a pure function on the domain model
 * (domain.Subscription.ValidForAccess) re-evaluated on every scan.
 */
package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
)

// CreateSubscription creates an unpaid, inactive subscription for a member.
// The price comes from the plan catalog unless an explicit override is given;
// an inactive plan is only usable with an explicit price.
func (s *Service) CreateSubscription(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.Subscription, error) {
	if _, err := s.repo.FindMemberByID(ctx, req.MemberID); err != nil {
		return nil, err
	}

	plan, err := s.repo.FindPlanByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Active && req.PriceCents == nil {
		return nil, ErrPlanInactive
	}

	price := plan.PriceCents
	if req.PriceCents != nil {
		price = *req.PriceCents
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:         uuid.New(),
		MemberID:   req.MemberID,
		PlanID:     plan.ID,
		PlanName:   plan.Name,
		PriceCents: price,
		StartDate:  now,
		EndDate:    now.AddDate(0, 0, plan.DurationDays),
		Paid:       false,
		Active:     false,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// MarkSubscriptionPaid records payment and activates the subscription. It
// does NOT reassign the member's current-subscription pointer; the caller
// does that through SetCurrentSubscription so an earlier still-valid
// subscription is never retired silently.
func (s *Service) MarkSubscriptionPaid(ctx context.Context, subscriptionID uuid.UUID, req domain.PaySubscriptionRequest) (*domain.Subscription, error) {
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		return nil, ErrInvalidPaymentMethod
	}
	return s.repo.MarkSubscriptionPaid(ctx, subscriptionID, method, req.ExternalPaymentID, time.Now().UTC())
}

// GetSubscription retrieves a subscription by id.
func (s *Service) GetSubscription(ctx context.Context, subscriptionID uuid.UUID) (*domain.Subscription, error) {
	return s.repo.FindSubscriptionByID(ctx, subscriptionID)
}
