/**
 * @description
 * The access decision engine behind the QR-scan endpoint. It resolves a
 * scanned credential to a member, evaluates the denial rules in a fixed
 * order, writes exactly one ledger entry, and returns the decision together
 * with a redacted member summary for the kiosk UI.
 *
 * The rule order is load-bearing: the first failing condition determines the
 * reason code, and later conditions are not evaluated. Subscription expiry is
 * checked directly on the end date (not through ValidForAccess) so unpaid,
 * inactive, and expired subscriptions each keep their own distinct code.
 */
package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
	"github.com/juanelvasco/piletaTIP-sub000/internal/store"
)

// ProcessScan evaluates one scanned credential and records the outcome.
// Exactly one AccessScan row is written per call, before the decision is
// returned, so the ledger and the response can never diverge.
func (s *Service) ProcessScan(ctx context.Context, operatorID uuid.UUID, req domain.ScanRequest) (*domain.ScanDecision, error) {
	credential := strings.TrimSpace(req.Credential)
	if credential == "" {
		return nil, ErrEmptyCredential
	}

	if s.limiter != nil && s.scanRateLimitPerMin > 0 {
		count, _, err := s.limiter.ConsumeRateLimit(ctx, "scan", operatorID.String(), s.scanRateLimitPerMin, time.Minute)
		if err != nil {
			// A limiter outage must not block the entrance.
			log.Printf("level=warn component=engine msg=\"rate limiter unavailable; allowing scan\" err=%v", err)
		} else if count > s.scanRateLimitPerMin {
			return nil, ErrScanRateLimited
		}
	}

	now := time.Now().UTC()

	member, err := s.repo.FindMemberByCredential(ctx, credential)
	if err != nil && !errors.Is(err, store.ErrMemberNotFound) {
		return nil, err
	}

	// Unknown credential: nothing further can be checked, but the attempt is
	// still an auditable fact.
	if member == nil {
		reason := domain.ReasonCredentialInvalid
		scan := &domain.AccessScan{
			ID:         uuid.New(),
			Outcome:    domain.OutcomeDenied,
			ReasonCode: &reason,
			OperatorID: operatorID,
			Note:       req.Note,
			ScannedAt:  now,
		}
		if err := s.repo.CreateScan(ctx, scan); err != nil {
			return nil, err
		}
		s.publishScanRecorded(ctx, scan)
		return &domain.ScanDecision{
			Granted:       false,
			ReasonCode:    &reason,
			ReasonMessage: reason.Message(),
			ScanID:        scan.ID,
		}, nil
	}

	var sub *domain.Subscription
	if member.CurrentSubscriptionID != nil {
		sub, err = s.repo.FindSubscriptionByID(ctx, *member.CurrentSubscriptionID)
		if err != nil {
			if !errors.Is(err, store.ErrSubscriptionNotFound) {
				return nil, err
			}
			// A dangling pointer counts as having no subscription.
			sub = nil
		}
	}

	cert, err := s.repo.FindCertificateByMemberID(ctx, member.ID)
	if err != nil {
		if !errors.Is(err, store.ErrCertificateNotFound) {
			return nil, err
		}
		cert = nil
	}

	reason := evaluateAccessRules(member, sub, cert, now)

	scan := &domain.AccessScan{
		ID:         uuid.New(),
		MemberID:   &member.ID,
		Outcome:    domain.OutcomeGranted,
		ReasonCode: reason,
		OperatorID: operatorID,
		Note:       req.Note,
		ScannedAt:  now,
	}
	if sub != nil {
		scan.SubscriptionID = &sub.ID
	}
	if reason != nil {
		scan.Outcome = domain.OutcomeDenied
	}
	if err := s.repo.CreateScan(ctx, scan); err != nil {
		return nil, err
	}
	s.publishScanRecorded(ctx, scan)

	decision := &domain.ScanDecision{
		Granted:    reason == nil,
		ReasonCode: reason,
		// The summary is assembled for every outcome so the operator UI can
		// show full context on denial, not just the failure reason.
		Member: buildMemberSummary(member, sub, cert, now),
		ScanID: scan.ID,
	}
	if reason != nil {
		decision.ReasonMessage = reason.Message()
	}
	return decision, nil
}

// evaluateAccessRules walks the denial conditions in their fixed order and
// returns the first failing code, or nil when access is granted.
func evaluateAccessRules(member *domain.Member, sub *domain.Subscription, cert *domain.HealthCertificate, now time.Time) *domain.ReasonCode {
	deny := func(r domain.ReasonCode) *domain.ReasonCode { return &r }

	switch {
	case !member.Active:
		return deny(domain.ReasonMemberInactive)
	case member.Suspended:
		return deny(domain.ReasonMemberSuspended)
	case sub == nil:
		return deny(domain.ReasonNoSubscription)
	case !sub.Paid:
		return deny(domain.ReasonSubscriptionUnpaid)
	case sub.EndDate.Before(now):
		// end date is inclusive: endDate == now still passes
		return deny(domain.ReasonSubscriptionExpired)
	case cert == nil:
		return deny(domain.ReasonNoHealthCertificate)
	case !cert.ValidForAccess(now):
		return deny(domain.ReasonHealthCertificateExpired)
	}
	return nil
}

// buildMemberSummary assembles the redacted member view returned with every
// decision, including subscription and certificate context even when they
// are expired or unpaid.
func buildMemberSummary(member *domain.Member, sub *domain.Subscription, cert *domain.HealthCertificate, now time.Time) *domain.MemberSummary {
	summary := &domain.MemberSummary{
		ID:         member.ID,
		FullName:   member.FullName,
		NationalID: member.NationalID,
		PhotoURL:   member.PhotoURL,
	}
	if sub != nil {
		planName := sub.PlanName
		endDate := sub.EndDate
		daysLeft := sub.DaysRemaining(now)
		paid := sub.Paid
		summary.SubscriptionPlan = &planName
		summary.SubscriptionEndDate = &endDate
		summary.SubscriptionDaysLeft = &daysLeft
		summary.SubscriptionPaid = &paid
	}
	if cert != nil {
		expiry := cert.ExpiresAt
		daysLeft := cert.DaysRemaining(now)
		summary.CertificateExpiry = &expiry
		summary.CertificateDaysLeft = &daysLeft
	}
	return summary
}

func (s *Service) publishScanRecorded(ctx context.Context, scan *domain.AccessScan) {
	s.publish(ctx, "access.scan.recorded", domain.ScanRecordedEvent{
		ScanID:     scan.ID,
		MemberID:   scan.MemberID,
		Outcome:    scan.Outcome,
		ReasonCode: scan.ReasonCode,
		OperatorID: scan.OperatorID,
		ScannedAt:  scan.ScannedAt,
	})
}
