package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return tx.Commit()
}

func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		// Chart of accounts
		`CREATE TABLE IF NOT EXISTS accounts (
			id             TEXT PRIMARY KEY,
			code           TEXT NOT NULL UNIQUE,
			name           TEXT NOT NULL,
			type           TEXT NOT NULL CHECK (type IN ('Asset','Liability','Equity','Revenue','Expense')),
			normal_balance TEXT NOT NULL CHECK (normal_balance IN ('debit','credit')),
			parent_code    TEXT,
			is_active      INTEGER NOT NULL DEFAULT 1,
			created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_code ON accounts(code)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_type ON accounts(type)`,

		// Posting groups: all lines of one balanced economic event.
		// Legacy single-line postings carry no group.
		`CREATE TABLE IF NOT EXISTS posting_groups (
			transaction_id TEXT PRIMARY KEY,
			source_kind    TEXT NOT NULL DEFAULT '',
			source_id      TEXT NOT NULL DEFAULT '',
			posted         INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		// Journal ledger
		`CREATE TABLE IF NOT EXISTS postings (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id     TEXT NOT NULL REFERENCES accounts(id),
			date           TEXT NOT NULL,
			reference      TEXT NOT NULL DEFAULT '',
			description    TEXT NOT NULL DEFAULT '',
			debit          REAL NOT NULL DEFAULT 0 CHECK (debit >= 0),
			credit         REAL NOT NULL DEFAULT 0 CHECK (credit >= 0),
			journal_type   TEXT NOT NULL DEFAULT '',
			source_kind    TEXT NOT NULL DEFAULT '',
			source_id      TEXT NOT NULL DEFAULT '',
			transaction_id TEXT REFERENCES posting_groups(transaction_id),
			is_reversal    INTEGER NOT NULL DEFAULT 0,
			reversal_of    TEXT,
			branch_id      TEXT NOT NULL DEFAULT '',
			division_id    TEXT NOT NULL DEFAULT '',
			project_id     TEXT NOT NULL DEFAULT '',
			recon_id       INTEGER,
			cleared_at     TEXT,
			confirmed      INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_postings_account_date ON postings(account_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_postings_txn ON postings(transaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_postings_reversal_of ON postings(reversal_of)`,
		`CREATE INDEX IF NOT EXISTS idx_postings_source ON postings(source_kind, source_id)`,

		// Trigger: refuse to mark an unbalanced group posted. Tolerance
		// absorbs 2-decimal rounding.
		`CREATE TRIGGER IF NOT EXISTS trg_group_balance
		BEFORE UPDATE OF posted ON posting_groups
		WHEN NEW.posted = 1
		BEGIN
			SELECT CASE
				WHEN ABS((SELECT COALESCE(SUM(debit - credit), 0) FROM postings WHERE transaction_id = NEW.transaction_id)) > 0.005
				THEN RAISE(ABORT, 'posting group debits and credits do not balance')
			END;
		END`,

		// Trigger: posted groups are append-only; lines may only be
		// removed by deleting the whole group (posted flag reset first).
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_postings_update
		BEFORE UPDATE OF account_id, date, debit, credit, transaction_id ON postings
		WHEN OLD.transaction_id IS NOT NULL
			AND (SELECT posted FROM posting_groups WHERE transaction_id = OLD.transaction_id) = 1
		BEGIN
			SELECT RAISE(ABORT, 'cannot modify lines of a posted group');
		END`,
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_postings_delete
		BEFORE DELETE ON postings
		WHEN OLD.transaction_id IS NOT NULL
			AND (SELECT posted FROM posting_groups WHERE transaction_id = OLD.transaction_id) = 1
		BEGIN
			SELECT RAISE(ABORT, 'cannot remove lines from a posted group');
		END`,

		// Stock movement feed
		`CREATE TABLE IF NOT EXISTS products (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			is_raw_material INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id   TEXT NOT NULL REFERENCES products(id),
			warehouse_id TEXT NOT NULL DEFAULT '',
			branch_id    TEXT NOT NULL DEFAULT '',
			date         TEXT NOT NULL,
			type         TEXT NOT NULL CHECK (type IN ('purchase_in','manufacture_in','adjustment_in','manufacture_out','adjustment_out','sales')),
			quantity     REAL NOT NULL DEFAULT 0,
			value        REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_movements_date ON stock_movements(date)`,

		// Cash/bank transaction feed
		`CREATE TABLE IF NOT EXISTS cash_bank_transactions (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			number          TEXT NOT NULL DEFAULT '',
			date            TEXT NOT NULL,
			type            TEXT NOT NULL CHECK (type IN ('cash_in','bank_in','cash_out','bank_out')),
			amount          REAL NOT NULL DEFAULT 0,
			account_code    TEXT NOT NULL,
			offset_code     TEXT NOT NULL DEFAULT '',
			cash_account_id TEXT NOT NULL DEFAULT '',
			branch_id       TEXT NOT NULL DEFAULT '',
			division_id     TEXT NOT NULL DEFAULT '',
			project_id      TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cash_bank_date ON cash_bank_transactions(date)`,

		// Fixed-asset acquisition feed
		`CREATE TABLE IF NOT EXISTS assets (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			name          TEXT NOT NULL,
			purchase_date TEXT NOT NULL,
			purchase_cost REAL NOT NULL DEFAULT 0,
			account_code  TEXT NOT NULL
		)`,

		// Sales receipt feed for the direct cash-flow resolver
		`CREATE TABLE IF NOT EXISTS sales_receipt_lines (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			receipt_number TEXT NOT NULL DEFAULT '',
			customer       TEXT NOT NULL DEFAULT '',
			payment_date   TEXT NOT NULL,
			method         TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT '',
			amount         REAL NOT NULL DEFAULT 0
		)`,

		// Outstanding receivables/payables and the aging cache
		`CREATE TABLE IF NOT EXISTS open_invoices (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			number       TEXT NOT NULL,
			kind         TEXT NOT NULL CHECK (kind IN ('receivable','payable')),
			party        TEXT NOT NULL DEFAULT '',
			invoice_date TEXT NOT NULL,
			total        REAL NOT NULL DEFAULT 0,
			paid         REAL NOT NULL DEFAULT 0,
			remaining    REAL NOT NULL DEFAULT 0,
			branch_id    TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'open'
		)`,
		`CREATE TABLE IF NOT EXISTS aging_schedules (
			invoice_id       INTEGER PRIMARY KEY REFERENCES open_invoices(id),
			days_outstanding INTEGER NOT NULL,
			bucket           TEXT NOT NULL
		)`,

		// Bank reconciliation records, one per (account, calendar month)
		`CREATE TABLE IF NOT EXISTS bank_reconciliations (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id        TEXT NOT NULL REFERENCES accounts(id),
			period_start      TEXT NOT NULL,
			period_end        TEXT NOT NULL,
			statement_balance REAL,
			book_balance      REAL NOT NULL DEFAULT 0,
			status            TEXT NOT NULL DEFAULT 'open',
			notes             TEXT NOT NULL DEFAULT '',
			UNIQUE (account_id, period_start)
		)`,

		`INSERT INTO schema_version (version) VALUES (1)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			summary := stmt
			if len(summary) > 60 {
				summary = summary[:60]
			}
			return fmt.Errorf("exec %q: %w", summary, err)
		}
	}

	return nil
}
