/**
 * @description
 * Plan catalog management. Plans are first-class records referenced by id;
 * the catalog must always keep at least one purchasable plan, so removing or
 * deactivating the last active one is a conflict.
 */
package app

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
)

// ListPlans returns the catalog; inactive entries only when asked for.
func (s *Service) ListPlans(ctx context.Context, includeInactive bool) ([]domain.Plan, error) {
	return s.repo.ListPlans(ctx, includeInactive)
}

// CreatePlan adds a catalog entry.
func (s *Service) CreatePlan(ctx context.Context, req domain.UpsertPlanRequest) (*domain.Plan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.DurationDays <= 0 {
		return nil, ErrInvalidPlanData
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	plan := &domain.Plan{
		ID:           uuid.New(),
		Name:         name,
		PriceCents:   req.PriceCents,
		DurationDays: req.DurationDays,
		Active:       active,
		DisplayOrder: req.DisplayOrder,
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdatePlan rewrites a catalog entry. Deactivating the last active plan is
// rejected so subscriptions can always be sold.
func (s *Service) UpdatePlan(ctx context.Context, planID uuid.UUID, req domain.UpsertPlanRequest) (*domain.Plan, error) {
	plan, err := s.repo.FindPlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || req.DurationDays <= 0 {
		return nil, ErrInvalidPlanData
	}

	active := plan.Active
	if req.Active != nil {
		active = *req.Active
	}
	if plan.Active && !active {
		count, err := s.repo.CountActivePlans(ctx)
		if err != nil {
			return nil, err
		}
		if count <= 1 {
			return nil, ErrLastActivePlan
		}
	}

	plan.Name = name
	plan.PriceCents = req.PriceCents
	plan.DurationDays = req.DurationDays
	plan.Active = active
	plan.DisplayOrder = req.DisplayOrder
	if err := s.repo.UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan removes a catalog entry, refusing to drop the last active plan.
// Subscriptions keep their snapshotted plan name and price.
func (s *Service) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	plan, err := s.repo.FindPlanByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan.Active {
		count, err := s.repo.CountActivePlans(ctx)
		if err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastActivePlan
		}
	}
	return s.repo.DeletePlan(ctx, planID)
}
