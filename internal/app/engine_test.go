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

type engineRepoStub struct {
	store.Repository

	member        *domain.Member
	sub           *domain.Subscription
	subErr        error
	cert          *domain.HealthCertificate
	createScanErr error

	scans []*domain.AccessScan
}

func (s *engineRepoStub) FindMemberByCredential(ctx context.Context, credential string) (*domain.Member, error) {
	if s.member == nil || s.member.Credential != credential {
		return nil, store.ErrMemberNotFound
	}
	return s.member, nil
}

func (s *engineRepoStub) FindSubscriptionByID(ctx context.Context, subscriptionID uuid.UUID) (*domain.Subscription, error) {
	if s.subErr != nil {
		return nil, s.subErr
	}
	if s.sub == nil {
		return nil, store.ErrSubscriptionNotFound
	}
	return s.sub, nil
}

func (s *engineRepoStub) FindCertificateByMemberID(ctx context.Context, memberID uuid.UUID) (*domain.HealthCertificate, error) {
	if s.cert == nil {
		return nil, store.ErrCertificateNotFound
	}
	return s.cert, nil
}

func (s *engineRepoStub) CreateScan(ctx context.Context, scan *domain.AccessScan) error {
	if s.createScanErr != nil {
		return s.createScanErr
	}
	s.scans = append(s.scans, scan)
	return nil
}

type publisherStub struct {
	routingKeys []string
	err         error
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.routingKeys = append(p.routingKeys, routingKey)
	return nil
}

type limiterStub struct {
	count int
	err   error
}

func (l *limiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	if l.err != nil {
		return 0, 0, l.err
	}
	return l.count, 1, nil
}

// eligibleMember returns a member/subscription/certificate trio that passes
// every access rule.
func eligibleMember() (*domain.Member, *domain.Subscription, *domain.HealthCertificate) {
	now := time.Now().UTC()
	subID := uuid.New()
	member := &domain.Member{
		ID:                    uuid.New(),
		FullName:              "Ana Suarez",
		NationalID:            "30111222",
		Credential:            "abc123",
		Role:                  domain.RoleMember,
		Active:                true,
		CurrentSubscriptionID: &subID,
	}
	sub := &domain.Subscription{
		ID:        subID,
		MemberID:  member.ID,
		PlanName:  "Monthly",
		StartDate: now.AddDate(0, 0, -5),
		EndDate:   now.AddDate(0, 0, 25),
		Paid:      true,
		Active:    true,
	}
	cert := &domain.HealthCertificate{
		ID:        uuid.New(),
		MemberID:  member.ID,
		IssuedAt:  now.AddDate(0, 0, -3),
		ExpiresAt: now.AddDate(0, 0, 12),
		Vigente:   true,
	}
	return member, sub, cert
}

func TestProcessScan_Granted(t *testing.T) {
	member, sub, cert := eligibleMember()
	repo := &engineRepoStub{member: member, sub: sub, cert: cert}
	pub := &publisherStub{}
	svc := NewService(repo, pub)

	decision, err := svc.ProcessScan(context.Background(), uuid.New(), domain.ScanRequest{Credential: "abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Granted {
		t.Fatalf("expected granted decision, got denied with reason %v", decision.ReasonCode)
	}
	if decision.ReasonCode != nil {
		t.Fatalf("expected nil reason code on grant, got %s", *decision.ReasonCode)
	}
	if len(repo.scans) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", len(repo.scans))
	}
	if repo.scans[0].Outcome != domain.OutcomeGranted {
		t.Fatalf("expected granted ledger entry, got %s", repo.scans[0].Outcome)
	}
	if decision.Member == nil || decision.Member.FullName != "Ana Suarez" {
		t.Fatal("expected member summary on granted decision")
	}
	if decision.Member.SubscriptionDaysLeft == nil || *decision.Member.SubscriptionDaysLeft != 25 {
		t.Fatalf("expected 25 subscription days left in summary, got %v", decision.Member.SubscriptionDaysLeft)
	}
	if len(pub.routingKeys) != 1 || pub.routingKeys[0] != "access.scan.recorded" {
		t.Fatalf("expected one access.scan.recorded event, got %v", pub.routingKeys)
	}
}

func TestProcessScan_UnknownCredential(t *testing.T) {
	repo := &engineRepoStub{}
	svc := NewService(repo, nil)

	decision, err := svc.ProcessScan(context.Background(), uuid.New(), domain.ScanRequest{Credential: "never-issued"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Granted {
		t.Fatal("expected denial for unknown credential")
	}
	if decision.ReasonCode == nil || *decision.ReasonCode != domain.ReasonCredentialInvalid {
		t.Fatalf("expected CREDENTIAL_INVALID, got %v", decision.ReasonCode)
	}
	if decision.Member != nil {
		t.Fatal("expected no member summary for an unknown credential")
	}
	if len(repo.scans) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", len(repo.scans))
	}
	if repo.scans[0].MemberID != nil {
		t.Fatal("expected nil member id on the unknown-credential ledger entry")
	}
}

func TestProcessScan_EmptyCredential(t *testing.T) {
	repo := &engineRepoStub{}
	svc := NewService(repo, nil)

	_, err := svc.ProcessScan(context.Background(), uuid.New(), domain.ScanRequest{Credential: "   "})
	if !errors.Is(err, ErrEmptyCredential) {
		t.Fatalf("expected ErrEmptyCredential, got %v", err)
	}
	if len(repo.scans) != 0 {
		t.Fatalf("expected no ledger entry for an empty credential, got %d", len(repo.scans))
	}
}

func TestProcessScan_DenialReasons(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(m *domain.Member, s *domain.Subscription, c *domain.HealthCertificate) (*domain.Subscription, *domain.HealthCertificate)
		want   domain.ReasonCode
	}{
		{
			name: "inactive member wins over everything else",
			mutate: func(m *domain.Member, s *domain.Subscription, c *domain.HealthCertificate) (*domain.Subscription, *domain.HealthCertificate) {
				m.Active = false
				m.Suspended = true
				m.CurrentSubscriptionID = nil
				return nil, nil
			},
			want: domain.ReasonMemberInactive,
		},
		{
			name: "suspended member",
			mutate: func(m *domain.Member, s *domain.Subscription, c *domain.HealthCertificate) (*domain.Subscription, *domain.HealthCertificate) {
				m.Suspended = true
				return s, c
			},
			want: domain.ReasonMemberSuspended,
		},
		{
			name: "no subscription",
			mutate: func(m *domain.Member, s *domain.Subscription, c *domain.HealthCertificate) (*domain.Subscription, *domain.HealthCertificate) {
				m.CurrentSubscriptionID = nil
				return nil, c
			},
			want: domain.ReasonNoSubscription,
		},
		{
			name: "unpaid subscription",
			mutate: func(m *domain.Member, s *domain.Subscription, c *domain.HealthCertificate) (*domain.Subscription, *domain.HealthCertificate) {
				s.Paid = false
				return s, c
			},
			want: domain.ReasonSubscriptionUnpaid,
		},
		{
			name: "expired subscription",
			mutate: func(m *domain.Member, s *domain.Subscription, c *domain.HealthCertificate) (*domain.Subscription, *domain.HealthCertificate) {
				s.EndDate = time.Now().UTC().Add(-time.Hour)
				return s, c
			},
			want: domain.ReasonSubscriptionExpired,
		},
		{
			name: "no health certificate",
			mutate: func(m *domain.Member, s *domain.Subscription, c *domain.HealthCertificate) (*domain.Subscription, *domain.HealthCertificate) {
				return s, nil
			},
			want: domain.ReasonNoHealthCertificate,
		},
		{
			name: "expired health certificate",
			mutate: func(m *domain.Member, s *domain.Subscription, c *domain.HealthCertificate) (*domain.Subscription, *domain.HealthCertificate) {
				c.ExpiresAt = time.Now().UTC().AddDate(0, 0, -1)
				return s, c
			},
			want: domain.ReasonHealthCertificateExpired,
		},
		{
			name: "stale vigente flag on expired certificate",
			mutate: func(m *domain.Member, s *domain.Subscription, c *domain.HealthCertificate) (*domain.Subscription, *domain.HealthCertificate) {
				c.Vigente = true
				c.ExpiresAt = time.Now().UTC().Add(-time.Hour)
				return s, c
			},
			want: domain.ReasonHealthCertificateExpired,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			member, sub, cert := eligibleMember()
			sub, cert = tc.mutate(member, sub, cert)
			repo := &engineRepoStub{member: member, sub: sub, cert: cert}
			svc := NewService(repo, nil)

			decision, err := svc.ProcessScan(context.Background(), uuid.New(), domain.ScanRequest{Credential: "abc123"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decision.Granted {
				t.Fatal("expected denial")
			}
			if decision.ReasonCode == nil || *decision.ReasonCode != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, decision.ReasonCode)
			}
			if decision.ReasonMessage == "" {
				t.Fatal("expected a human-readable reason message")
			}
			if decision.Member == nil {
				t.Fatal("expected member summary on denial for a known member")
			}
			if len(repo.scans) != 1 {
				t.Fatalf("expected exactly one ledger entry, got %d", len(repo.scans))
			}
			if repo.scans[0].Outcome != domain.OutcomeDenied {
				t.Fatalf("expected denied ledger entry, got %s", repo.scans[0].Outcome)
			}
		})
	}
}

func TestProcessScan_DanglingSubscriptionPointer(t *testing.T) {
	member, _, cert := eligibleMember()
	repo := &engineRepoStub{member: member, subErr: store.ErrSubscriptionNotFound, cert: cert}
	svc := NewService(repo, nil)

	decision, err := svc.ProcessScan(context.Background(), uuid.New(), domain.ScanRequest{Credential: "abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.ReasonCode == nil || *decision.ReasonCode != domain.ReasonNoSubscription {
		t.Fatalf("expected NO_SUBSCRIPTION for a dangling pointer, got %v", decision.ReasonCode)
	}
}

func TestProcessScan_SubscriptionEndDateInclusive(t *testing.T) {
	member, sub, cert := eligibleMember()
	// Later today still counts; the end date is an inclusive boundary.
	sub.EndDate = time.Now().UTC().Add(time.Minute)
	repo := &engineRepoStub{member: member, sub: sub, cert: cert}
	svc := NewService(repo, nil)

	decision, err := svc.ProcessScan(context.Background(), uuid.New(), domain.ScanRequest{Credential: "abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Granted {
		t.Fatalf("expected grant on the subscription's last day, got %v", decision.ReasonCode)
	}
}

func TestProcessScan_LedgerWriteFailureFailsScan(t *testing.T) {
	member, sub, cert := eligibleMember()
	repo := &engineRepoStub{member: member, sub: sub, cert: cert, createScanErr: errors.New("disk full")}
	svc := NewService(repo, nil)

	if _, err := svc.ProcessScan(context.Background(), uuid.New(), domain.ScanRequest{Credential: "abc123"}); err == nil {
		t.Fatal("expected error when the ledger write fails")
	}
}

func TestProcessScan_RateLimited(t *testing.T) {
	member, sub, cert := eligibleMember()
	repo := &engineRepoStub{member: member, sub: sub, cert: cert}
	svc := NewService(repo, nil)
	svc.SetScanRateLimiter(&limiterStub{count: 61}, 60)

	_, err := svc.ProcessScan(context.Background(), uuid.New(), domain.ScanRequest{Credential: "abc123"})
	if !errors.Is(err, ErrScanRateLimited) {
		t.Fatalf("expected ErrScanRateLimited, got %v", err)
	}
	if len(repo.scans) != 0 {
		t.Fatalf("expected no ledger entry for a throttled scan, got %d", len(repo.scans))
	}
}

func TestProcessScan_LimiterOutageAllowsScan(t *testing.T) {
	member, sub, cert := eligibleMember()
	repo := &engineRepoStub{member: member, sub: sub, cert: cert}
	svc := NewService(repo, nil)
	svc.SetScanRateLimiter(&limiterStub{err: errors.New("redis down")}, 60)

	decision, err := svc.ProcessScan(context.Background(), uuid.New(), domain.ScanRequest{Credential: "abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Granted {
		t.Fatal("expected the scan to proceed when the limiter is unavailable")
	}
}

func TestProcessScan_PublishFailureDoesNotFailScan(t *testing.T) {
	member, sub, cert := eligibleMember()
	repo := &engineRepoStub{member: member, sub: sub, cert: cert}
	pub := &publisherStub{err: errors.New("broker down")}
	svc := NewService(repo, pub)

	decision, err := svc.ProcessScan(context.Background(), uuid.New(), domain.ScanRequest{Credential: "abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Granted {
		t.Fatal("expected grant; event publishing is best-effort")
	}
}
