package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
	"github.com/juanelvasco/piletaTIP-sub000/internal/store"
)

type ledgerRepoStub struct {
	store.Repository

	scan        *domain.AccessScan
	overrideErr error

	overriddenBy     uuid.UUID
	overrideReason   string
	overrideAttempts int
}

func (s *ledgerRepoStub) OverrideScan(ctx context.Context, scanID, operatorID uuid.UUID, reason string, at time.Time) (*domain.AccessScan, error) {
	s.overrideAttempts++
	if s.overrideErr != nil {
		return nil, s.overrideErr
	}
	if s.scan == nil || s.scan.ID != scanID {
		return nil, store.ErrScanNotFound
	}
	reasonCode := domain.ReasonManualOverride
	s.overriddenBy = operatorID
	s.overrideReason = reason
	s.scan.Outcome = domain.OutcomeDenied
	s.scan.ReasonCode = &reasonCode
	s.scan.OverriddenManually = true
	s.scan.OverriddenBy = &operatorID
	s.scan.OverriddenAt = &at
	s.scan.OverrideReason = &reason
	return s.scan, nil
}

func TestOverrideScan_RequiresReason(t *testing.T) {
	repo := &ledgerRepoStub{}
	svc := NewService(repo, nil)

	_, err := svc.OverrideScan(context.Background(), uuid.New(), uuid.New(), domain.OverrideScanRequest{Reason: "  "})
	if !errors.Is(err, ErrInvalidOverrideReason) {
		t.Fatalf("expected ErrInvalidOverrideReason, got %v", err)
	}
	if repo.overrideAttempts != 0 {
		t.Fatal("expected no store call without a reason")
	}
}

func TestOverrideScan_SetsManualOverride(t *testing.T) {
	scan := &domain.AccessScan{ID: uuid.New(), Outcome: domain.OutcomeGranted}
	repo := &ledgerRepoStub{scan: scan}
	pub := &publisherStub{}
	svc := NewService(repo, pub)

	operator := uuid.New()
	got, err := svc.OverrideScan(context.Background(), scan.ID, operator, domain.OverrideScanRequest{Reason: "wrong person let in"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Outcome != domain.OutcomeDenied {
		t.Fatalf("expected denied outcome after override, got %s", got.Outcome)
	}
	if got.ReasonCode == nil || *got.ReasonCode != domain.ReasonManualOverride {
		t.Fatalf("expected MANUAL_OVERRIDE, got %v", got.ReasonCode)
	}
	if !got.OverriddenManually || got.OverriddenBy == nil || *got.OverriddenBy != operator {
		t.Fatal("expected override attribution fields to be set")
	}
	if len(pub.routingKeys) != 1 || pub.routingKeys[0] != "access.scan.overridden" {
		t.Fatalf("expected one access.scan.overridden event, got %v", pub.routingKeys)
	}
}

func TestOverrideScan_ConflictPropagates(t *testing.T) {
	repo := &ledgerRepoStub{overrideErr: store.ErrScanNotOverridable}
	svc := NewService(repo, nil)

	_, err := svc.OverrideScan(context.Background(), uuid.New(), uuid.New(), domain.OverrideScanRequest{Reason: "second attempt"})
	if !errors.Is(err, store.ErrScanNotOverridable) {
		t.Fatalf("expected ErrScanNotOverridable, got %v", err)
	}
}

func TestOverrideScan_NotFoundPropagates(t *testing.T) {
	repo := &ledgerRepoStub{}
	svc := NewService(repo, nil)

	_, err := svc.OverrideScan(context.Background(), uuid.New(), uuid.New(), domain.OverrideScanRequest{Reason: "typo"})
	if !errors.Is(err, store.ErrScanNotFound) {
		t.Fatalf("expected ErrScanNotFound, got %v", err)
	}
}
