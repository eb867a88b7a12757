/**
 * @description
 * This file defines the subscription plan catalog entity. Plans are proper
 * records with their own identity; subscriptions reference them by id and
 * snapshot the name and price at creation time.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a purchasable subscription type configured by facility admins.
type Plan struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PriceCents   int64     `json:"price_cents"`
	DurationDays int       `json:"duration_days"`
	Active       bool      `json:"active"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpsertPlanRequest is the payload for creating or updating a plan.
type UpsertPlanRequest struct {
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	DurationDays int    `json:"duration_days"`
	Active       *bool  `json:"active,omitempty"`
	DisplayOrder int    `json:"display_order"`
}
