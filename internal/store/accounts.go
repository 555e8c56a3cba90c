package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santara-erp/ledger/internal/ledger"
)

func (s *Store) CreateAccount(ctx context.Context, acct *ledger.Account) error {
	if acct.ID == "" {
		acct.ID = uuid.Must(uuid.NewV7()).String()
	}
	if acct.NormalBalance == "" {
		acct.NormalBalance = ledger.DefaultNormalBalance(acct.Type)
	}
	// New accounts are always live; retirement is a separate step.
	acct.IsActive = true
	if err := acct.Validate(); err != nil {
		return err
	}

	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO accounts (id, code, name, type, normal_balance, parent_code, is_active) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.Code, acct.Name, string(acct.Type), string(acct.NormalBalance),
		nullString(acct.ParentCode), 1,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("%w: code %s", ledger.ErrDuplicateAccount, acct.Code)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT id, code, name, type, normal_balance, parent_code, is_active, created_at FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *Store) GetAccountByCode(ctx context.Context, code string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx,
		`SELECT id, code, name, type, normal_balance, parent_code, is_active, created_at FROM accounts WHERE code = ?`, code)
	return scanAccount(row)
}

// ListAccounts returns the chart of accounts ordered by code.
// When activeOnly is set, soft-retired accounts are excluded.
func (s *Store) ListAccounts(ctx context.Context, activeOnly bool) ([]ledger.Account, error) {
	query := `SELECT id, code, name, type, normal_balance, parent_code, is_active, created_at FROM accounts`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY code`

	rows, err := s.reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		acct, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

// RetireAccount soft-retires an account. Accounts referenced by
// postings are never deleted.
func (s *Store) RetireAccount(ctx context.Context, code string) error {
	res, err := s.writer.ExecContext(ctx, `UPDATE accounts SET is_active = 0 WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("retire account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (*ledger.Account, error) {
	var acct ledger.Account
	var isActive int
	var parentCode sql.NullString
	var createdAt string
	err := row.Scan(&acct.ID, &acct.Code, &acct.Name, &acct.Type, &acct.NormalBalance, &parentCode, &isActive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acct.ParentCode = parentCode.String
	acct.IsActive = isActive == 1
	acct.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &acct, nil
}

func scanAccountRow(rows *sql.Rows) (*ledger.Account, error) {
	var acct ledger.Account
	var isActive int
	var parentCode sql.NullString
	var createdAt string
	err := rows.Scan(&acct.ID, &acct.Code, &acct.Name, &acct.Type, &acct.NormalBalance, &parentCode, &isActive, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("scan account row: %w", err)
	}
	acct.ParentCode = parentCode.String
	acct.IsActive = isActive == 1
	acct.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &acct, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
