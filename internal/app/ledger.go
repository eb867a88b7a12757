/**
 * @description
 * Scan ledger operations: the one-shot manual override and the query surface
 * used by the reporting screens. Ledger entries themselves are written by the
 * decision engine; nothing else appends to the ledger.
 */
package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
)

// OverrideScan retroactively denies a previously granted scan. Allowed only
// when the original outcome was granted and no override exists yet; the
// original automated decision stays auditable through the override fields.
func (s *Service) OverrideScan(ctx context.Context, scanID, operatorID uuid.UUID, req domain.OverrideScanRequest) (*domain.AccessScan, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrInvalidOverrideReason
	}

	now := time.Now().UTC()
	scan, err := s.repo.OverrideScan(ctx, scanID, operatorID, reason, now)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "access.scan.overridden", domain.ScanOverriddenEvent{
		ScanID:       scan.ID,
		OverriddenBy: operatorID,
		Reason:       reason,
		OverriddenAt: now,
	})
	return scan, nil
}

// GetScan retrieves one ledger entry.
func (s *Service) GetScan(ctx context.Context, scanID uuid.UUID) (*domain.AccessScan, error) {
	return s.repo.FindScanByID(ctx, scanID)
}

// ListScans returns a ledger page, newest first.
func (s *Service) ListScans(ctx context.Context, opts domain.ScanListOptions) (*domain.ScanPage, error) {
	return s.repo.ListScans(ctx, opts)
}

// ScanStats aggregates ledger counts over an optional date range.
func (s *Service) ScanStats(ctx context.Context, dateFrom, dateTo *time.Time) (*domain.ScanStats, error) {
	return s.repo.GetScanStats(ctx, dateFrom, dateTo)
}
