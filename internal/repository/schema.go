package repository

// Schema definitions for the Kestrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaBorrowers = `
CREATE TABLE IF NOT EXISTS borrowers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    country TEXT NOT NULL,
    requested REAL NOT NULL,
    ai_score INTEGER NOT NULL,
    volatility REAL NOT NULL,
    flags TEXT,
    status TEXT NOT NULL,
    wallet_balance REAL NOT NULL DEFAULT 0,
    bank_balance REAL NOT NULL DEFAULT 0,
    risk_band TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_borrowers_country ON borrowers(country);
CREATE INDEX IF NOT EXISTS idx_borrowers_status ON borrowers(status);
CREATE INDEX IF NOT EXISTS idx_borrowers_risk_band ON borrowers(risk_band);
`

const schemaBorrowerTransactions = `
CREATE TABLE IF NOT EXISTS borrower_transactions (
    borrower_id TEXT NOT NULL,
    date TIMESTAMP NOT NULL,
    description TEXT NOT NULL,
    amount REAL NOT NULL,
    channel TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_borrower_transactions_borrower ON borrower_transactions(borrower_id);
CREATE INDEX IF NOT EXISTS idx_borrower_transactions_date ON borrower_transactions(borrower_id, date);
`

const schemaScorecards = `
CREATE TABLE IF NOT EXISTS scorecards (
    id TEXT PRIMARY KEY,
    borrower_id TEXT,
    score INTEGER NOT NULL,
    risk_level TEXT,
    band TEXT,
    credit_limit INTEGER NOT NULL,
    flags TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scorecards_borrower ON scorecards(borrower_id);
CREATE INDEX IF NOT EXISTS idx_scorecards_created ON scorecards(created_at);
`

const schemaLoanOffers = `
CREATE TABLE IF NOT EXISTS loan_offers (
    id TEXT PRIMARY KEY,
    decision TEXT NOT NULL,
    final_score REAL NOT NULL,
    apr REAL NOT NULL,
    max_offer INTEGER NOT NULL,
    approved_amount TEXT NOT NULL,
    total_interest TEXT NOT NULL,
    total_repay TEXT NOT NULL,
    installments INTEGER NOT NULL,
    schedule TEXT,
    flags TEXT
);

CREATE INDEX IF NOT EXISTS idx_loan_offers_decision ON loan_offers(decision);
`

const schemaFlagRules = `
CREATE TABLE IF NOT EXISTS flag_rules (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    expression TEXT NOT NULL,
    label TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_flag_rules_enabled ON flag_rules(enabled);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaBorrowers,
		schemaBorrowerTransactions,
		schemaScorecards,
		schemaLoanOffers,
		schemaFlagRules,
	}
}
