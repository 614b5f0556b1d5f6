package accounting

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Method types a payment journal can be resolved for.
const (
	MethodCash = "cash"
	MethodBank = "bank"
	MethodFund = "fund"
	MethodTele = "tele"
)

// CompanyConfig carries the per-company accounting setup the factory needs.
// Any empty field required by an operation surfaces as ErrNotConfigured.
type CompanyConfig struct {
	CommissionProductID string
	FineProductID       string
	CouponProductID     string
	PointsProductID     string

	GeneralJournalID      string
	SubscriptionJournalID string
	PaymentJournals       map[string]string // journal id per method type

	ExpenseAccountID      string
	BankAccountID         string
	BonusAccountID        string
	RiderWalletAccountID  string
	DriverWalletAccountID string
}

// ConfigStore resolves the accounting configuration for a company.
type ConfigStore interface {
	Company(ctx context.Context, companyID string) (CompanyConfig, error)
}

// StaticConfig is a ConfigStore serving the same configuration for every
// company. Used in tests and single-tenant deployments.
type StaticConfig struct {
	Config CompanyConfig
}

// Company returns the static configuration.
func (s StaticConfig) Company(_ context.Context, _ string) (CompanyConfig, error) {
	return s.Config, nil
}

// PostgresConfigStore reads company configuration rows from PostgreSQL.
type PostgresConfigStore struct {
	db *pgxpool.Pool
}

// NewPostgresConfigStore builds a Postgres-backed config store.
func NewPostgresConfigStore(db *pgxpool.Pool) *PostgresConfigStore {
	return &PostgresConfigStore{db: db}
}

// Company loads the configuration row for a company.
func (s *PostgresConfigStore) Company(ctx context.Context, companyID string) (CompanyConfig, error) {
	row := s.db.QueryRow(ctx, `SELECT commission_product_id, fine_product_id, coupon_product_id, points_product_id,
            general_journal_id, subscription_journal_id, cash_journal_id, bank_journal_id, fund_journal_id, tele_journal_id,
            expense_account_id, bank_account_id, bonus_account_id, rider_wallet_account_id, driver_wallet_account_id
        FROM company_configs WHERE company_id = $1`, companyID)

	var cfg CompanyConfig
	var cashJournal, bankJournal, fundJournal, teleJournal string
	if err := row.Scan(&cfg.CommissionProductID, &cfg.FineProductID, &cfg.CouponProductID, &cfg.PointsProductID,
		&cfg.GeneralJournalID, &cfg.SubscriptionJournalID, &cashJournal, &bankJournal, &fundJournal, &teleJournal,
		&cfg.ExpenseAccountID, &cfg.BankAccountID, &cfg.BonusAccountID, &cfg.RiderWalletAccountID, &cfg.DriverWalletAccountID); err != nil {
		return CompanyConfig{}, fmt.Errorf("%w: company %s has no accounting configuration", ErrNotConfigured, companyID)
	}
	cfg.PaymentJournals = map[string]string{
		MethodCash: cashJournal,
		MethodBank: bankJournal,
		MethodFund: fundJournal,
		MethodTele: teleJournal,
	}
	return cfg, nil
}
