package store

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"

	"github.com/santara-erp/ledger/internal/ledger"
	_ "modernc.org/sqlite"
)

// DateLayout is the storage format for all date columns.
const DateLayout = "2006-01-02"

type Store struct {
	writer *sql.DB
	reader *sql.DB
}

func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(runtime.NumCPU())

	s := &Store{writer: writer, reader: reader}

	if err := s.migrate(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	err1 := s.writer.Close()
	err2 := s.reader.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// filterClause appends posting-level filter conditions to a query.
// Column names are qualified with the given table alias.
func filterClause(alias string, f ledger.Filter, query *strings.Builder, args *[]any) {
	if len(f.Branches) > 0 {
		query.WriteString(fmt.Sprintf(" AND %s.branch_id IN (%s)", alias, placeholders(len(f.Branches))))
		for _, b := range f.Branches {
			*args = append(*args, b)
		}
	}
	if f.DivisionID != "" {
		query.WriteString(fmt.Sprintf(" AND %s.division_id = ?", alias))
		*args = append(*args, f.DivisionID)
	}
	if f.ProjectID != "" {
		query.WriteString(fmt.Sprintf(" AND %s.project_id = ?", alias))
		*args = append(*args, f.ProjectID)
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
