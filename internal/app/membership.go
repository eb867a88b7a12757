/**
 * @description
 * Membership operations: registration, suspension, credential rotation, and
 * the single-writer reassignment of a member's current subscription.
 */
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
)

// newCredential generates the opaque token encoded in the member's QR code.
// 16 random bytes, hex-encoded; stable until explicitly rotated.
func newCredential() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate credential: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateMember registers a new member and issues their scan credential.
func (s *Service) CreateMember(ctx context.Context, req domain.CreateMemberRequest) (*domain.Member, error) {
	fullName := strings.TrimSpace(req.FullName)
	nationalID := strings.TrimSpace(req.NationalID)
	if fullName == "" || nationalID == "" {
		return nil, ErrInvalidMemberData
	}

	role := req.Role
	if role == "" {
		role = domain.RoleMember
	}
	switch role {
	case domain.RoleMember, domain.RoleOperator, domain.RoleMedicalStaff:
	default:
		return nil, ErrInvalidRole
	}

	credential, err := newCredential()
	if err != nil {
		return nil, err
	}

	member := &domain.Member{
		ID:         uuid.New(),
		FullName:   fullName,
		NationalID: nationalID,
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		PhotoURL:   strings.TrimSpace(req.PhotoURL),
		Credential: credential,
		Role:       role,
		Active:     true,
	}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// GetMember retrieves a member by id.
func (s *Service) GetMember(ctx context.Context, memberID uuid.UUID) (*domain.Member, error) {
	return s.repo.FindMemberByID(ctx, memberID)
}

// SuspendMember bans a member from the facility until reinstated.
func (s *Service) SuspendMember(ctx context.Context, memberID uuid.UUID, reason string) error {
	now := time.Now().UTC()
	trimmed := strings.TrimSpace(reason)
	var reasonPtr *string
	if trimmed != "" {
		reasonPtr = &trimmed
	}
	return s.repo.UpdateMemberSuspension(ctx, memberID, true, reasonPtr, &now)
}

// ReinstateMember lifts a suspension.
func (s *Service) ReinstateMember(ctx context.Context, memberID uuid.UUID) error {
	return s.repo.UpdateMemberSuspension(ctx, memberID, false, nil, nil)
}

// RotateCredential issues a fresh scan credential, invalidating the previous
// QR code. Used when a member reports a lost or cloned code.
func (s *Service) RotateCredential(ctx context.Context, memberID uuid.UUID) (*domain.Member, error) {
	if _, err := s.repo.FindMemberByID(ctx, memberID); err != nil {
		return nil, err
	}
	credential, err := newCredential()
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateMemberCredential(ctx, memberID, credential); err != nil {
		return nil, err
	}
	return s.repo.FindMemberByID(ctx, memberID)
}

// SetCurrentSubscription points the member at the subscription the decision
// engine should check. This is the only writer of that pointer; marking a
// subscription paid never reassigns it implicitly.
func (s *Service) SetCurrentSubscription(ctx context.Context, memberID, subscriptionID uuid.UUID) error {
	sub, err := s.repo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.MemberID != memberID {
		return ErrSubscriptionOwnership
	}
	return s.repo.SetCurrentSubscription(ctx, memberID, subscriptionID)
}
