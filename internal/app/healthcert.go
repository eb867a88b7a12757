/**
 * @description
 * Health certificate lifecycle. A member has at most one certificate row;
 * issuing again renews it in place with a fresh validity window and resets
 * the expiry-alert flags.
 */
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
	"github.com/juanelvasco/piletaTIP-sub000/internal/store"
)

// CreateOrRenewCertificate issues a member's health certificate, or renews
// the existing one in place. validityDays defaults to the facility setting
// and must fall within [1, 365].
func (s *Service) CreateOrRenewCertificate(ctx context.Context, issuedBy uuid.UUID, req domain.CreateCertificateRequest) (*domain.HealthCertificate, error) {
	if _, err := s.repo.FindMemberByID(ctx, req.MemberID); err != nil {
		return nil, err
	}

	validityDays := req.ValidityDays
	if validityDays == 0 {
		settings, err := s.repo.GetSettings(ctx)
		if err != nil {
			return nil, err
		}
		validityDays = settings.CertDefaultValidityDays
	}
	if validityDays < domain.CertificateMinValidityDays || validityDays > domain.CertificateMaxValidityDays {
		return nil, ErrInvalidValidityDays
	}

	now := time.Now().UTC()
	existing, err := s.repo.FindCertificateByMemberID(ctx, req.MemberID)
	if err != nil && !errors.Is(err, store.ErrCertificateNotFound) {
		return nil, err
	}

	if existing != nil {
		existing.IssuedAt = now
		existing.ValidityDays = validityDays
		existing.ExpiresAt = now.AddDate(0, 0, validityDays)
		existing.Vigente = true
		existing.IssuedBy = issuedBy
		existing.Notes = req.Notes
		existing.AlertSent = false
		existing.AlertSentAt = nil
		if err := s.repo.RenewCertificate(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	cert := &domain.HealthCertificate{
		ID:           uuid.New(),
		MemberID:     req.MemberID,
		IssuedAt:     now,
		ValidityDays: validityDays,
		ExpiresAt:    now.AddDate(0, 0, validityDays),
		Vigente:      true,
		IssuedBy:     issuedBy,
		Notes:        req.Notes,
	}
	if err := s.repo.CreateCertificate(ctx, cert); err != nil {
		return nil, err
	}
	return cert, nil
}

// RenewCertificateByID renews an existing certificate looked up by its own id.
func (s *Service) RenewCertificateByID(ctx context.Context, certificateID, issuedBy uuid.UUID, validityDays int, notes string) (*domain.HealthCertificate, error) {
	cert, err := s.repo.FindCertificateByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	return s.CreateOrRenewCertificate(ctx, issuedBy, domain.CreateCertificateRequest{
		MemberID:     cert.MemberID,
		ValidityDays: validityDays,
		Notes:        notes,
	})
}
