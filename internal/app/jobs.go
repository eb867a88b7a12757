/**
 * @description
 * Scheduled maintenance job implementations. These run out-of-band in the
 * scheduler binary; the scan decision path never depends on their timing
 * because validity is always re-derived from the dates.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
	"github.com/juanelvasco/piletaTIP-sub000/internal/store"
)

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo     store.Repository
	producer EventPublisher
	logger   *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(repo store.Repository, producer EventPublisher, logger *slog.Logger) *Jobs {
	return &Jobs{repo: repo, producer: producer, logger: logger}
}

// SweepExpiredCertificates flips vigente=false on certificates past expiry.
func (j *Jobs) SweepExpiredCertificates() {
	j.logger.Info("starting expired certificate sweep")
	ctx := context.Background()

	count, err := j.repo.MarkExpiredCertificatesStale(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Error("failed to sweep expired certificates", "error", err)
		return
	}

	j.logger.Info("expired certificate sweep finished", "updated", count)
}

// SweepExpiredSubscriptions corrects stale active flags on subscriptions past
// their end date.
func (j *Jobs) SweepExpiredSubscriptions() {
	j.logger.Info("starting expired subscription sweep")
	ctx := context.Background()

	count, err := j.repo.DeactivateExpiredSubscriptions(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Error("failed to sweep expired subscriptions", "error", err)
		return
	}

	j.logger.Info("expired subscription sweep finished", "updated", count)
}

// PublishExpiryAlerts finds certificates and subscriptions inside their alert
// lead windows, publishes one event each, and marks them alerted.
func (j *Jobs) PublishExpiryAlerts() {
	j.logger.Info("starting expiry alert job")
	ctx := context.Background()

	settings, err := j.repo.GetSettings(ctx)
	if err != nil {
		j.logger.Error("failed to load facility settings", "error", err)
		return
	}

	now := time.Now().UTC()

	certs, err := j.repo.FindCertificatesExpiringWithin(ctx, now, now.AddDate(0, 0, settings.CertAlertLeadDays))
	if err != nil {
		j.logger.Error("failed to find expiring certificates", "error", err)
	} else {
		for _, cert := range certs {
			event := domain.CertificateExpiringEvent{
				CertificateID: cert.ID,
				MemberID:      cert.MemberID,
				ExpiresAt:     cert.ExpiresAt,
				DaysRemaining: cert.DaysRemaining(now),
			}
			if err := j.producer.Publish(ctx, EventsExchange, "alerts.certificate.expiring", event); err != nil {
				j.logger.Error("failed to publish certificate alert", "certificate_id", cert.ID, "error", err)
				continue
			}
			if err := j.repo.MarkCertificateAlertSent(ctx, cert.ID, now); err != nil {
				j.logger.Error("failed to mark certificate alert sent", "certificate_id", cert.ID, "error", err)
			}
		}
		j.logger.Info("certificate alerts processed", "count", len(certs))
	}

	subs, err := j.repo.FindSubscriptionsExpiringWithin(ctx, now, now.AddDate(0, 0, settings.SubscriptionAlertLeadDays))
	if err != nil {
		j.logger.Error("failed to find expiring subscriptions", "error", err)
		return
	}
	for _, sub := range subs {
		event := domain.SubscriptionExpiringEvent{
			SubscriptionID: sub.ID,
			MemberID:       sub.MemberID,
			EndDate:        sub.EndDate,
			DaysRemaining:  sub.DaysRemaining(now),
		}
		if err := j.producer.Publish(ctx, EventsExchange, "alerts.subscription.expiring", event); err != nil {
			j.logger.Error("failed to publish subscription alert", "subscription_id", sub.ID, "error", err)
			continue
		}
		if err := j.repo.MarkSubscriptionAlertSent(ctx, sub.ID, now); err != nil {
			j.logger.Error("failed to mark subscription alert sent", "subscription_id", sub.ID, "error", err)
		}
	}
	j.logger.Info("expiry alert job finished", "subscription_alerts", len(subs))
}
