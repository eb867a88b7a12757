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

type certRepoStub struct {
	store.Repository

	member   *domain.Member
	existing *domain.HealthCertificate
	settings domain.FacilitySettings

	created *domain.HealthCertificate
	renewed *domain.HealthCertificate
}

func (s *certRepoStub) FindMemberByID(ctx context.Context, memberID uuid.UUID) (*domain.Member, error) {
	if s.member == nil || s.member.ID != memberID {
		return nil, store.ErrMemberNotFound
	}
	return s.member, nil
}

func (s *certRepoStub) GetSettings(ctx context.Context) (*domain.FacilitySettings, error) {
	settings := s.settings
	return &settings, nil
}

func (s *certRepoStub) FindCertificateByMemberID(ctx context.Context, memberID uuid.UUID) (*domain.HealthCertificate, error) {
	if s.existing == nil {
		return nil, store.ErrCertificateNotFound
	}
	return s.existing, nil
}

func (s *certRepoStub) FindCertificateByID(ctx context.Context, certificateID uuid.UUID) (*domain.HealthCertificate, error) {
	if s.existing == nil || s.existing.ID != certificateID {
		return nil, store.ErrCertificateNotFound
	}
	return s.existing, nil
}

func (s *certRepoStub) CreateCertificate(ctx context.Context, cert *domain.HealthCertificate) error {
	s.created = cert
	return nil
}

func (s *certRepoStub) RenewCertificate(ctx context.Context, cert *domain.HealthCertificate) error {
	s.renewed = cert
	return nil
}

func TestCreateCertificate_DefaultsValidityFromSettings(t *testing.T) {
	member := &domain.Member{ID: uuid.New()}
	repo := &certRepoStub{member: member, settings: domain.DefaultFacilitySettings()}
	svc := NewService(repo, nil)

	cert, err := svc.CreateOrRenewCertificate(context.Background(), uuid.New(), domain.CreateCertificateRequest{
		MemberID: member.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert.ValidityDays != domain.DefaultCertValidityDays {
		t.Fatalf("expected default validity %d, got %d", domain.DefaultCertValidityDays, cert.ValidityDays)
	}
	wantExpiry := cert.IssuedAt.AddDate(0, 0, domain.DefaultCertValidityDays)
	if !cert.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, cert.ExpiresAt)
	}
	if !cert.Vigente {
		t.Fatal("expected a freshly issued certificate to be vigente")
	}
	if repo.created == nil {
		t.Fatal("expected a create, not a renewal")
	}
}

func TestCreateCertificate_ValidityRange(t *testing.T) {
	member := &domain.Member{ID: uuid.New()}
	repo := &certRepoStub{member: member, settings: domain.DefaultFacilitySettings()}
	svc := NewService(repo, nil)

	for _, days := range []int{-1, 366, 1000} {
		_, err := svc.CreateOrRenewCertificate(context.Background(), uuid.New(), domain.CreateCertificateRequest{
			MemberID:     member.ID,
			ValidityDays: days,
		})
		if !errors.Is(err, ErrInvalidValidityDays) {
			t.Fatalf("validityDays=%d: expected ErrInvalidValidityDays, got %v", days, err)
		}
	}

	for _, days := range []int{1, 15, 365} {
		if _, err := svc.CreateOrRenewCertificate(context.Background(), uuid.New(), domain.CreateCertificateRequest{
			MemberID:     member.ID,
			ValidityDays: days,
		}); err != nil {
			t.Fatalf("validityDays=%d: unexpected error: %v", days, err)
		}
	}
}

func TestCreateCertificate_RenewsInPlace(t *testing.T) {
	member := &domain.Member{ID: uuid.New()}
	alertAt := time.Now().UTC().Add(-time.Hour)
	existing := &domain.HealthCertificate{
		ID:           uuid.New(),
		MemberID:     member.ID,
		IssuedAt:     time.Now().UTC().AddDate(0, 0, -20),
		ValidityDays: 15,
		ExpiresAt:    time.Now().UTC().AddDate(0, 0, -5),
		Vigente:      false,
		AlertSent:    true,
		AlertSentAt:  &alertAt,
	}
	repo := &certRepoStub{member: member, existing: existing, settings: domain.DefaultFacilitySettings()}
	svc := NewService(repo, nil)

	issuer := uuid.New()
	cert, err := svc.CreateOrRenewCertificate(context.Background(), issuer, domain.CreateCertificateRequest{
		MemberID:     member.ID,
		ValidityDays: 30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.renewed == nil {
		t.Fatal("expected a renewal, not a create")
	}
	if repo.created != nil {
		t.Fatal("renewal must not insert a second certificate row")
	}
	if cert.ID != existing.ID {
		t.Fatal("renewal must keep the certificate identity")
	}
	if !cert.Vigente {
		t.Fatal("expected renewed certificate to be vigente again")
	}
	if cert.AlertSent || cert.AlertSentAt != nil {
		t.Fatal("expected renewal to reset the alert flags")
	}
	if cert.ValidityDays != 30 {
		t.Fatalf("expected validity 30, got %d", cert.ValidityDays)
	}
	if cert.IssuedBy != issuer {
		t.Fatal("expected renewal to record the new issuer")
	}
}

func TestRenewCertificateByID(t *testing.T) {
	member := &domain.Member{ID: uuid.New()}
	existing := &domain.HealthCertificate{
		ID:        uuid.New(),
		MemberID:  member.ID,
		ExpiresAt: time.Now().UTC().AddDate(0, 0, 2),
		Vigente:   true,
	}
	repo := &certRepoStub{member: member, existing: existing, settings: domain.DefaultFacilitySettings()}
	svc := NewService(repo, nil)

	cert, err := svc.RenewCertificateByID(context.Background(), existing.ID, uuid.New(), 0, "annual check ok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert.ValidityDays != domain.DefaultCertValidityDays {
		t.Fatalf("expected default validity on renewal, got %d", cert.ValidityDays)
	}
	if cert.Notes != "annual check ok" {
		t.Fatalf("expected notes to be replaced, got %q", cert.Notes)
	}
}

func TestRenewCertificateByID_NotFound(t *testing.T) {
	repo := &certRepoStub{settings: domain.DefaultFacilitySettings()}
	svc := NewService(repo, nil)

	_, err := svc.RenewCertificateByID(context.Background(), uuid.New(), uuid.New(), 0, "")
	if !errors.Is(err, store.ErrCertificateNotFound) {
		t.Fatalf("expected ErrCertificateNotFound, got %v", err)
	}
}
