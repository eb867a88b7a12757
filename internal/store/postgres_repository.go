/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all the SQL needed for members, the plan catalog,
 * subscriptions, health certificates, the scan ledger, and the facility
 * settings singleton.
 *
 * @dependencies
 * - context, time, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
)

var (
	ErrMemberNotFound          = errors.New("member not found")
	ErrPlanNotFound            = errors.New("plan not found")
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrCertificateNotFound     = errors.New("certificate not found")
	ErrScanNotFound            = errors.New("scan not found")
	ErrSettingsNotFound        = errors.New("facility settings not found")
	ErrSubscriptionAlreadyPaid = errors.New("subscription already paid")
	ErrScanNotOverridable      = errors.New("scan already overridden or not granted")
	ErrDuplicateNationalID     = errors.New("national id already registered")
	ErrDuplicateCredential     = errors.New("credential already in use")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraint == "" || strings.Contains(pgErr.ConstraintName, constraint)
	}
	return false
}

// --- Members ---

const memberColumns = `id, full_name, national_id, email, phone, photo_url, credential, role,
	active, suspended, suspension_reason, suspended_at, current_subscription_id, created_at, updated_at`

func (r *PostgresRepository) scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	err := row.Scan(
		&m.ID, &m.FullName, &m.NationalID, &m.Email, &m.Phone, &m.PhotoURL, &m.Credential, &m.Role,
		&m.Active, &m.Suspended, &m.SuspensionReason, &m.SuspendedAt, &m.CurrentSubscriptionID,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

// CreateMember inserts a new member row.
func (r *PostgresRepository) CreateMember(ctx context.Context, member *domain.Member) error {
	query := `
		INSERT INTO members (id, full_name, national_id, email, phone, photo_url, credential, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		member.ID, member.FullName, member.NationalID, member.Email, member.Phone,
		member.PhotoURL, member.Credential, member.Role, member.Active,
	)
	if err != nil {
		if isUniqueViolation(err, "national_id") {
			return ErrDuplicateNationalID
		}
		if isUniqueViolation(err, "credential") {
			return ErrDuplicateCredential
		}
		return err
	}
	return nil
}

// FindMemberByID retrieves a member by primary key.
func (r *PostgresRepository) FindMemberByID(ctx context.Context, memberID uuid.UUID) (*domain.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE id = $1`, memberColumns)
	return r.scanMember(r.db.QueryRow(ctx, query, memberID))
}

// FindMemberByCredential resolves a scanned QR token to a member.
func (r *PostgresRepository) FindMemberByCredential(ctx context.Context, credential string) (*domain.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE credential = $1`, memberColumns)
	return r.scanMember(r.db.QueryRow(ctx, query, credential))
}

// UpdateMemberSuspension toggles the suspension flag and its metadata.
func (r *PostgresRepository) UpdateMemberSuspension(ctx context.Context, memberID uuid.UUID, suspended bool, reason *string, at *time.Time) error {
	query := `
		UPDATE members
		SET suspended = $2, suspension_reason = $3, suspended_at = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, memberID, suspended, reason, at)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// UpdateMemberCredential replaces the member's scan credential, invalidating
// the previous QR code.
func (r *PostgresRepository) UpdateMemberCredential(ctx context.Context, memberID uuid.UUID, credential string) error {
	query := `UPDATE members SET credential = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, memberID, credential)
	if err != nil {
		if isUniqueViolation(err, "credential") {
			return ErrDuplicateCredential
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// SetCurrentSubscription points the member at the subscription the decision
// engine should check.
func (r *PostgresRepository) SetCurrentSubscription(ctx context.Context, memberID uuid.UUID, subscriptionID uuid.UUID) error {
	query := `UPDATE members SET current_subscription_id = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, memberID, subscriptionID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// --- Plan catalog ---

const planColumns = `id, name, price_cents, duration_days, active, display_order, created_at, updated_at`

func (r *PostgresRepository) scanPlan(row pgx.Row) (*domain.Plan, error) {
	var p domain.Plan
	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.DurationDays, &p.Active, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreatePlan inserts a new catalog entry.
func (r *PostgresRepository) CreatePlan(ctx context.Context, plan *domain.Plan) error {
	query := `
		INSERT INTO plans (id, name, price_cents, duration_days, active, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, plan.ID, plan.Name, plan.PriceCents, plan.DurationDays, plan.Active, plan.DisplayOrder)
	return err
}

// UpdatePlan rewrites the mutable catalog fields.
func (r *PostgresRepository) UpdatePlan(ctx context.Context, plan *domain.Plan) error {
	query := `
		UPDATE plans
		SET name = $2, price_cents = $3, duration_days = $4, active = $5, display_order = $6, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, plan.ID, plan.Name, plan.PriceCents, plan.DurationDays, plan.Active, plan.DisplayOrder)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// FindPlanByID retrieves a plan by primary key.
func (r *PostgresRepository) FindPlanByID(ctx context.Context, planID uuid.UUID) (*domain.Plan, error) {
	query := fmt.Sprintf(`SELECT %s FROM plans WHERE id = $1`, planColumns)
	return r.scanPlan(r.db.QueryRow(ctx, query, planID))
}

// ListPlans returns the catalog ordered for display.
func (r *PostgresRepository) ListPlans(ctx context.Context, includeInactive bool) ([]domain.Plan, error) {
	query := fmt.Sprintf(`SELECT %s FROM plans`, planColumns)
	if !includeInactive {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY display_order ASC, name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		var p domain.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.DurationDays, &p.Active, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// CountActivePlans returns how many plans are currently purchasable.
func (r *PostgresRepository) CountActivePlans(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM plans WHERE active = true`).Scan(&count)
	return count, err
}

// DeletePlan removes a catalog entry. Existing subscriptions keep their
// snapshotted plan name and price.
func (r *PostgresRepository) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM plans WHERE id = $1`, planID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// --- Subscriptions ---

const subscriptionColumns = `id, member_id, plan_id, plan_name, price_cents, start_date, end_date,
	paid, payment_method, external_payment_id, paid_at, active, alert_sent, alert_sent_at, created_at`

func (r *PostgresRepository) scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.ID, &s.MemberID, &s.PlanID, &s.PlanName, &s.PriceCents, &s.StartDate, &s.EndDate,
		&s.Paid, &s.PaymentMethod, &s.ExternalPaymentID, &s.PaidAt, &s.Active, &s.AlertSent, &s.AlertSentAt, &s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateSubscription inserts a new subscription row.
func (r *PostgresRepository) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, member_id, plan_id, plan_name, price_cents, start_date, end_date, paid, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		sub.ID, sub.MemberID, sub.PlanID, sub.PlanName, sub.PriceCents,
		sub.StartDate, sub.EndDate, sub.Paid, sub.Active,
	)
	return err
}

// FindSubscriptionByID retrieves a subscription by primary key.
func (r *PostgresRepository) FindSubscriptionByID(ctx context.Context, subscriptionID uuid.UUID) (*domain.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE id = $1`, subscriptionColumns)
	return r.scanSubscription(r.db.QueryRow(ctx, query, subscriptionID))
}

// MarkSubscriptionPaid flips paid/active in a single conditional statement so
// the already-paid check and the write cannot interleave.
func (r *PostgresRepository) MarkSubscriptionPaid(ctx context.Context, subscriptionID uuid.UUID, paymentMethod string, externalPaymentID *string, paidAt time.Time) (*domain.Subscription, error) {
	query := fmt.Sprintf(`
		UPDATE subscriptions
		SET paid = true, active = true, payment_method = $2, external_payment_id = $3, paid_at = $4
		WHERE id = $1 AND paid = false
		RETURNING %s
	`, subscriptionColumns)
	sub, err := r.scanSubscription(r.db.QueryRow(ctx, query, subscriptionID, paymentMethod, externalPaymentID, paidAt))
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			// Distinguish a missing row from an already-paid one.
			if _, findErr := r.FindSubscriptionByID(ctx, subscriptionID); findErr == nil {
				return nil, ErrSubscriptionAlreadyPaid
			}
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// DeactivateExpiredSubscriptions is the maintenance sweep that corrects stale
// active flags past the end date.
func (r *PostgresRepository) DeactivateExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE subscriptions SET active = false WHERE active = true AND end_date < $1`
	result, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// FindSubscriptionsExpiringWithin returns paid, active subscriptions ending
// inside the alert window that have not been alerted yet.
func (r *PostgresRepository) FindSubscriptionsExpiringWithin(ctx context.Context, now, deadline time.Time) ([]domain.Subscription, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM subscriptions
		WHERE paid = true AND active = true AND alert_sent = false
		  AND end_date >= $1 AND end_date <= $2
		ORDER BY end_date ASC
	`, subscriptionColumns)

	rows, err := r.db.Query(ctx, query, now, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(
			&s.ID, &s.MemberID, &s.PlanID, &s.PlanName, &s.PriceCents, &s.StartDate, &s.EndDate,
			&s.Paid, &s.PaymentMethod, &s.ExternalPaymentID, &s.PaidAt, &s.Active, &s.AlertSent, &s.AlertSentAt, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// MarkSubscriptionAlertSent records that the expiry alert was published.
func (r *PostgresRepository) MarkSubscriptionAlertSent(ctx context.Context, subscriptionID uuid.UUID, at time.Time) error {
	query := `UPDATE subscriptions SET alert_sent = true, alert_sent_at = $2 WHERE id = $1`
	result, err := r.db.Exec(ctx, query, subscriptionID, at)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// --- Health certificates ---

const certificateColumns = `id, member_id, issued_at, validity_days, expires_at, vigente, issued_by,
	notes, alert_sent, alert_sent_at, created_at, updated_at`

func (r *PostgresRepository) scanCertificate(row pgx.Row) (*domain.HealthCertificate, error) {
	var c domain.HealthCertificate
	err := row.Scan(
		&c.ID, &c.MemberID, &c.IssuedAt, &c.ValidityDays, &c.ExpiresAt, &c.Vigente, &c.IssuedBy,
		&c.Notes, &c.AlertSent, &c.AlertSentAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateCertificate inserts the member's (single) certificate row.
func (r *PostgresRepository) CreateCertificate(ctx context.Context, cert *domain.HealthCertificate) error {
	query := `
		INSERT INTO health_certificates (id, member_id, issued_at, validity_days, expires_at, vigente, issued_by, notes, alert_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		cert.ID, cert.MemberID, cert.IssuedAt, cert.ValidityDays, cert.ExpiresAt,
		cert.Vigente, cert.IssuedBy, cert.Notes,
	)
	return err
}

// RenewCertificate rewrites the validity window in place and resets the alert
// flags. One certificate per member, mutated over time.
func (r *PostgresRepository) RenewCertificate(ctx context.Context, cert *domain.HealthCertificate) error {
	query := `
		UPDATE health_certificates
		SET issued_at = $2, validity_days = $3, expires_at = $4, vigente = true, issued_by = $5,
		    notes = $6, alert_sent = false, alert_sent_at = NULL, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		cert.ID, cert.IssuedAt, cert.ValidityDays, cert.ExpiresAt, cert.IssuedBy, cert.Notes,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCertificateNotFound
	}
	return nil
}

// FindCertificateByMemberID retrieves a member's certificate.
func (r *PostgresRepository) FindCertificateByMemberID(ctx context.Context, memberID uuid.UUID) (*domain.HealthCertificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM health_certificates WHERE member_id = $1`, certificateColumns)
	return r.scanCertificate(r.db.QueryRow(ctx, query, memberID))
}

// FindCertificateByID retrieves a certificate by primary key.
func (r *PostgresRepository) FindCertificateByID(ctx context.Context, certificateID uuid.UUID) (*domain.HealthCertificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM health_certificates WHERE id = $1`, certificateColumns)
	return r.scanCertificate(r.db.QueryRow(ctx, query, certificateID))
}

// MarkExpiredCertificatesStale flips vigente=false for certificates past
// expiry. Maintenance only; the decision path never reads the stored flag
// without also checking the expiry date.
func (r *PostgresRepository) MarkExpiredCertificatesStale(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE health_certificates SET vigente = false, updated_at = NOW() WHERE vigente = true AND expires_at < $1`
	result, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// FindCertificatesExpiringWithin returns valid certificates expiring inside
// the alert window that have not been alerted yet.
func (r *PostgresRepository) FindCertificatesExpiringWithin(ctx context.Context, now, deadline time.Time) ([]domain.HealthCertificate, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM health_certificates
		WHERE vigente = true AND alert_sent = false
		  AND expires_at >= $1 AND expires_at <= $2
		ORDER BY expires_at ASC
	`, certificateColumns)

	rows, err := r.db.Query(ctx, query, now, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []domain.HealthCertificate
	for rows.Next() {
		var c domain.HealthCertificate
		if err := rows.Scan(
			&c.ID, &c.MemberID, &c.IssuedAt, &c.ValidityDays, &c.ExpiresAt, &c.Vigente, &c.IssuedBy,
			&c.Notes, &c.AlertSent, &c.AlertSentAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

// MarkCertificateAlertSent records that the expiry alert was published.
func (r *PostgresRepository) MarkCertificateAlertSent(ctx context.Context, certificateID uuid.UUID, at time.Time) error {
	query := `UPDATE health_certificates SET alert_sent = true, alert_sent_at = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, certificateID, at)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCertificateNotFound
	}
	return nil
}

// --- Scan ledger ---

const scanColumns = `s.id, s.member_id, s.subscription_id, s.outcome, s.reason_code, s.operator_id,
	s.note, s.scanned_at, s.overridden_manually, s.overridden_by, s.overridden_at, s.override_reason`

func (r *PostgresRepository) scanAccessScan(row pgx.Row) (*domain.AccessScan, error) {
	var s domain.AccessScan
	err := row.Scan(
		&s.ID, &s.MemberID, &s.SubscriptionID, &s.Outcome, &s.ReasonCode, &s.OperatorID,
		&s.Note, &s.ScannedAt, &s.OverriddenManually, &s.OverriddenBy, &s.OverriddenAt, &s.OverrideReason,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrScanNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateScan appends one immutable ledger entry.
func (r *PostgresRepository) CreateScan(ctx context.Context, scan *domain.AccessScan) error {
	query := `
		INSERT INTO access_scans (id, member_id, subscription_id, outcome, reason_code, operator_id, note, scanned_at, overridden_manually)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
	`
	_, err := r.db.Exec(ctx, query,
		scan.ID, scan.MemberID, scan.SubscriptionID, scan.Outcome, scan.ReasonCode,
		scan.OperatorID, scan.Note, scan.ScannedAt,
	)
	return err
}

// FindScanByID retrieves a ledger entry by primary key.
func (r *PostgresRepository) FindScanByID(ctx context.Context, scanID uuid.UUID) (*domain.AccessScan, error) {
	query := fmt.Sprintf(`SELECT %s FROM access_scans s WHERE s.id = $1`, scanColumns)
	return r.scanAccessScan(r.db.QueryRow(ctx, query, scanID))
}

// OverrideScan applies the one-shot manual override. The WHERE clause carries
// the "granted and not yet overridden" invariant so the check and the write
// are a single atomic statement.
func (r *PostgresRepository) OverrideScan(ctx context.Context, scanID uuid.UUID, operatorID uuid.UUID, reason string, at time.Time) (*domain.AccessScan, error) {
	query := fmt.Sprintf(`
		UPDATE access_scans s
		SET outcome = 'denied', reason_code = $2, overridden_manually = true,
		    overridden_by = $3, overridden_at = $4, override_reason = $5
		WHERE s.id = $1 AND s.outcome = 'granted' AND s.overridden_manually = false
		RETURNING %s
	`, scanColumns)
	scan, err := r.scanAccessScan(r.db.QueryRow(ctx, query, scanID, domain.ReasonManualOverride, operatorID, at, reason))
	if err != nil {
		if errors.Is(err, ErrScanNotFound) {
			if _, findErr := r.FindScanByID(ctx, scanID); findErr == nil {
				return nil, ErrScanNotOverridable
			}
			return nil, ErrScanNotFound
		}
		return nil, err
	}
	return scan, nil
}

// ListScans returns one page of the ledger, newest first, joined with member
// identity for the operator UI.
func (r *PostgresRepository) ListScans(ctx context.Context, opts domain.ScanListOptions) (*domain.ScanPage, error) {
	conditions := []string{}
	args := []interface{}{}
	arg := 1

	if opts.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("s.scanned_at >= $%d", arg))
		args = append(args, *opts.DateFrom)
		arg++
	}
	if opts.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("s.scanned_at <= $%d", arg))
		args = append(args, *opts.DateTo)
		arg++
	}
	if opts.Outcome != "" {
		conditions = append(conditions, fmt.Sprintf("s.outcome = $%d", arg))
		args = append(args, opts.Outcome)
		arg++
	}
	if opts.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(m.full_name ILIKE $%d OR m.national_id ILIKE $%d)", arg, arg))
		args = append(args, "%"+opts.Search+"%")
		arg++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM access_scans s LEFT JOIN members m ON m.id = s.member_id` + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = 25
	}

	listQuery := fmt.Sprintf(`
		SELECT %s, m.full_name, m.national_id
		FROM access_scans s
		LEFT JOIN members m ON m.id = s.member_id
		%s
		ORDER BY s.scanned_at DESC
		LIMIT $%d OFFSET $%d
	`, scanColumns, where, arg, arg+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := []domain.AccessScan{}
	for rows.Next() {
		var s domain.AccessScan
		if err := rows.Scan(
			&s.ID, &s.MemberID, &s.SubscriptionID, &s.Outcome, &s.ReasonCode, &s.OperatorID,
			&s.Note, &s.ScannedAt, &s.OverriddenManually, &s.OverriddenBy, &s.OverriddenAt, &s.OverrideReason,
			&s.MemberName, &s.MemberNationalID,
		); err != nil {
			return nil, err
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.ScanPage{
		Scans:      scans,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}, nil
}

// GetScanStats aggregates ledger counts for the reporting surface.
func (r *PostgresRepository) GetScanStats(ctx context.Context, dateFrom, dateTo *time.Time) (*domain.ScanStats, error) {
	conditions := []string{}
	args := []interface{}{}
	arg := 1

	if dateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("scanned_at >= $%d", arg))
		args = append(args, *dateFrom)
		arg++
	}
	if dateTo != nil {
		conditions = append(conditions, fmt.Sprintf("scanned_at <= $%d", arg))
		args = append(args, *dateTo)
		arg++
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	stats := &domain.ScanStats{ByReason: map[domain.ReasonCode]int{}}

	query := `SELECT outcome, reason_code, COUNT(*) FROM access_scans` + where + ` GROUP BY outcome, reason_code`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var reason *domain.ReasonCode
		var count int
		if err := rows.Scan(&outcome, &reason, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch outcome {
		case domain.OutcomeGranted:
			stats.Granted += count
		case domain.OutcomeDenied:
			stats.Denied += count
		}
		if reason != nil {
			stats.ByReason[*reason] += count
		}
	}
	return stats, rows.Err()
}

// --- Facility settings ---

// EnsureSettings creates the singleton settings row with defaults when it does
// not exist yet. Called once at process startup.
func (r *PostgresRepository) EnsureSettings(ctx context.Context, defaults domain.FacilitySettings) error {
	query := `
		INSERT INTO facility_settings (id, cert_default_validity_days, cert_alert_lead_days, subscription_alert_lead_days, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		defaults.CertDefaultValidityDays, defaults.CertAlertLeadDays, defaults.SubscriptionAlertLeadDays,
	)
	return err
}

// GetSettings reads the singleton settings row.
func (r *PostgresRepository) GetSettings(ctx context.Context) (*domain.FacilitySettings, error) {
	var s domain.FacilitySettings
	query := `
		SELECT cert_default_validity_days, cert_alert_lead_days, subscription_alert_lead_days, updated_at
		FROM facility_settings WHERE id = 1
	`
	err := r.db.QueryRow(ctx, query).Scan(
		&s.CertDefaultValidityDays, &s.CertAlertLeadDays, &s.SubscriptionAlertLeadDays, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return &s, nil
}
