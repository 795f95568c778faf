// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveBorrower upserts a borrower roster entry.
func (r *SQLRepository) SaveBorrower(ctx context.Context, b *domain.Borrower) error {
	if b == nil || b.ID == "" {
		return fmt.Errorf("%w: borrower id is required", ErrInvalidInput)
	}

	flags, _ := json.Marshal(b.Flags)

	query := `
		INSERT INTO borrowers (
			id, name, country, requested, ai_score, volatility,
			flags, status, wallet_balance, bank_balance, risk_band, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			country = excluded.country,
			requested = excluded.requested,
			ai_score = excluded.ai_score,
			volatility = excluded.volatility,
			flags = excluded.flags,
			status = excluded.status,
			wallet_balance = excluded.wallet_balance,
			bank_balance = excluded.bank_balance,
			risk_band = excluded.risk_band,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		b.ID, b.Name, b.Country, b.Requested, b.AIScore, b.Volatility,
		string(flags), string(b.Status), b.WalletBalance, b.BankBalance,
		string(b.RiskBand), time.Now().UTC(),
	)
	return err
}

// GetBorrower retrieves a borrower by ID.
func (r *SQLRepository) GetBorrower(ctx context.Context, id string) (*domain.Borrower, error) {
	query := `
		SELECT id, name, country, requested, ai_score, volatility,
			   flags, status, wallet_balance, bank_balance, risk_band, updated_at
		FROM borrowers
		WHERE id = ?
	`

	var b domain.Borrower
	var flags string

	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&b.ID, &b.Name, &b.Country, &b.Requested, &b.AIScore, &b.Volatility,
		&flags, &b.Status, &b.WalletBalance, &b.BankBalance, &b.RiskBand, &b.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if flags != "" {
		json.Unmarshal([]byte(flags), &b.Flags)
	}

	return &b, nil
}

// ListBorrowers retrieves borrowers matching the filter. An entirely
// empty filter matches every borrower.
func (r *SQLRepository) ListBorrowers(ctx context.Context, filter domain.BorrowerFilter) ([]*domain.Borrower, error) {
	query := `
		SELECT id, name, country, requested, ai_score, volatility,
			   flags, status, wallet_balance, bank_balance, risk_band, updated_at
		FROM borrowers
	`

	var clauses []string
	var args []any

	if len(filter.Countries) > 0 {
		placeholders := make([]string, len(filter.Countries))
		for i, c := range filter.Countries {
			placeholders[i] = "?"
			args = append(args, c)
		}
		clauses = append(clauses, fmt.Sprintf("country IN (%s)", strings.Join(placeholders, ", ")))
	}
	if len(filter.RiskBands) > 0 {
		placeholders := make([]string, len(filter.RiskBands))
		for i, band := range filter.RiskBands {
			placeholders[i] = "?"
			args = append(args, string(band))
		}
		clauses = append(clauses, fmt.Sprintf("risk_band IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.MinScore > 0 {
		clauses = append(clauses, "ai_score >= ?")
		args = append(args, filter.MinScore)
	}
	if filter.MaxScore > 0 {
		clauses = append(clauses, "ai_score <= ?")
		args = append(args, filter.MaxScore)
	}
	if filter.MaxVolatility > 0 {
		clauses = append(clauses, "volatility <= ?")
		args = append(args, filter.MaxVolatility)
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var borrowers []*domain.Borrower
	for rows.Next() {
		var b domain.Borrower
		var flags string

		if err := rows.Scan(
			&b.ID, &b.Name, &b.Country, &b.Requested, &b.AIScore, &b.Volatility,
			&flags, &b.Status, &b.WalletBalance, &b.BankBalance, &b.RiskBand, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if flags != "" {
			json.Unmarshal([]byte(flags), &b.Flags)
		}

		borrowers = append(borrowers, &b)
	}

	return borrowers, rows.Err()
}

// UpdateBorrowerStatus sets the application state for a borrower.
func (r *SQLRepository) UpdateBorrowerStatus(ctx context.Context, id string, status domain.BorrowerStatus) error {
	query := `
		UPDATE borrowers
		SET status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ApplyDisbursement credits the chosen balance and marks the borrower
// approved in a single statement, so the credit and the status change
// cannot be observed separately.
func (r *SQLRepository) ApplyDisbursement(ctx context.Context, id string, channel domain.DisbursementChannel, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	var column string
	switch channel {
	case domain.ChannelWallet:
		column = "wallet_balance"
	case domain.ChannelBank:
		column = "bank_balance"
	default:
		return fmt.Errorf("%w: unknown disbursement channel %q", ErrInvalidInput, channel)
	}

	query := fmt.Sprintf(`
		UPDATE borrowers
		SET %s = %s + ?, status = ?, updated_at = ?
		WHERE id = ?
	`, column, column)

	result, err := r.db.ExecContext(ctx, r.rebind(query),
		amount, string(domain.StatusApproved), time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveBorrowerTransactions appends history rows for a borrower.
func (r *SQLRepository) SaveBorrowerTransactions(ctx context.Context, borrowerID string, txs []domain.BorrowerTransaction) error {
	if borrowerID == "" {
		return fmt.Errorf("%w: borrowerID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO borrower_transactions (
			borrower_id, date, description, amount, channel
		) VALUES (?, ?, ?, ?, ?)
	`

	for _, tx := range txs {
		if _, err := r.db.ExecContext(ctx, r.rebind(query),
			borrowerID, tx.Date, tx.Description, tx.Amount, tx.Channel,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListBorrowerTransactions retrieves a borrower's history, most
// recent first.
func (r *SQLRepository) ListBorrowerTransactions(ctx context.Context, borrowerID string) ([]domain.BorrowerTransaction, error) {
	query := `
		SELECT borrower_id, date, description, amount, channel
		FROM borrower_transactions
		WHERE borrower_id = ?
		ORDER BY date DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), borrowerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.BorrowerTransaction
	for rows.Next() {
		var tx domain.BorrowerTransaction
		if err := rows.Scan(&tx.BorrowerID, &tx.Date, &tx.Description, &tx.Amount, &tx.Channel); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

// SaveScorecard stores a scoring run.
func (r *SQLRepository) SaveScorecard(ctx context.Context, sc *domain.Scorecard) error {
	if sc == nil || sc.ID == "" {
		return fmt.Errorf("%w: scorecard id is required", ErrInvalidInput)
	}

	flags, _ := json.Marshal(sc.Flags)

	query := `
		INSERT INTO scorecards (
			id, borrower_id, score, risk_level, band, credit_limit, flags, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		sc.ID, sc.BorrowerID, sc.Score, string(sc.RiskLevel), string(sc.Band),
		sc.Limit, string(flags), sc.CreatedAt,
	)
	return err
}

// GetScorecard retrieves a scoring run by ID.
func (r *SQLRepository) GetScorecard(ctx context.Context, id string) (*domain.Scorecard, error) {
	query := `
		SELECT id, borrower_id, score, risk_level, band, credit_limit, flags, created_at
		FROM scorecards
		WHERE id = ?
	`

	var sc domain.Scorecard
	var flags string

	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&sc.ID, &sc.BorrowerID, &sc.Score, &sc.RiskLevel, &sc.Band,
		&sc.Limit, &flags, &sc.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if flags != "" {
		json.Unmarshal([]byte(flags), &sc.Flags)
	}

	return &sc, nil
}

// SaveLoanOffer stores an underwriting result. Decimal amounts and the
// schedule are persisted as text so both drivers round-trip them
// without precision loss.
func (r *SQLRepository) SaveLoanOffer(ctx context.Context, offer *domain.LoanOffer) error {
	if offer == nil || offer.ID == "" {
		return fmt.Errorf("%w: loan offer id is required", ErrInvalidInput)
	}

	schedule, _ := json.Marshal(offer.Schedule)
	flags, _ := json.Marshal(offer.Flags)

	query := `
		INSERT INTO loan_offers (
			id, decision, final_score, apr, max_offer, approved_amount,
			total_interest, total_repay, installments, schedule, flags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		offer.ID, string(offer.Decision), offer.FinalScore, offer.APR, offer.MaxOffer,
		offer.ApprovedAmount.String(), offer.TotalInterest.String(), offer.TotalRepay.String(),
		offer.Installments, string(schedule), string(flags),
	)
	return err
}

// GetLoanOffer retrieves an underwriting result by ID.
func (r *SQLRepository) GetLoanOffer(ctx context.Context, id string) (*domain.LoanOffer, error) {
	query := `
		SELECT id, decision, final_score, apr, max_offer, approved_amount,
			   total_interest, total_repay, installments, schedule, flags
		FROM loan_offers
		WHERE id = ?
	`

	var offer domain.LoanOffer
	var approved, interest, repay, schedule, flags string

	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&offer.ID, &offer.Decision, &offer.FinalScore, &offer.APR, &offer.MaxOffer,
		&approved, &interest, &repay, &offer.Installments, &schedule, &flags,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if offer.ApprovedAmount, err = decimalFromString(approved); err != nil {
		return nil, fmt.Errorf("failed to parse approved amount for %s: %w", id, err)
	}
	if offer.TotalInterest, err = decimalFromString(interest); err != nil {
		return nil, fmt.Errorf("failed to parse total interest for %s: %w", id, err)
	}
	if offer.TotalRepay, err = decimalFromString(repay); err != nil {
		return nil, fmt.Errorf("failed to parse total repay for %s: %w", id, err)
	}

	if schedule != "" {
		json.Unmarshal([]byte(schedule), &offer.Schedule)
	}
	if flags != "" {
		json.Unmarshal([]byte(flags), &offer.Flags)
	}

	return &offer, nil
}

// SaveFlagRule upserts a custom flag rule.
func (r *SQLRepository) SaveFlagRule(ctx context.Context, rule *domain.FlagRule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: flag rule id is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO flag_rules (
			id, name, description, expression, label, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			label = excluded.label,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.Name, rule.Description, rule.Expression, rule.Label, enabled,
		now, now,
	)
	return err
}

// GetFlagRule retrieves a flag rule by ID.
func (r *SQLRepository) GetFlagRule(ctx context.Context, id string) (*domain.FlagRule, error) {
	query := `
		SELECT id, name, description, expression, label, enabled
		FROM flag_rules
		WHERE id = ?
	`

	var rule domain.FlagRule
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&rule.ID, &rule.Name, &rule.Description, &rule.Expression, &rule.Label, &enabled,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled == 1
	return &rule, nil
}

// ListFlagRules retrieves all enabled flag rules.
func (r *SQLRepository) ListFlagRules(ctx context.Context) ([]*domain.FlagRule, error) {
	query := `
		SELECT id, name, description, expression, label, enabled
		FROM flag_rules
		WHERE enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.FlagRule
	for rows.Next() {
		var rule domain.FlagRule
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Description, &rule.Expression, &rule.Label, &enabled,
		); err != nil {
			return nil, err
		}

		rule.Enabled = enabled == 1
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// DeleteFlagRule soft-deletes a flag rule by setting enabled = 0.
func (r *SQLRepository) DeleteFlagRule(ctx context.Context, id string) error {
	query := `
		UPDATE flag_rules
		SET enabled = 0, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func decimalFromString(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
