package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// EnsureOutcome reports what an Ensure call did to the store.
type EnsureOutcome int

const (
	// OutcomeApplied means the DDL ran and the object now exists.
	OutcomeApplied EnsureOutcome = iota
	// OutcomeAlreadyExists means the object was already present. This is a
	// success, never an error.
	OutcomeAlreadyExists
)

// String returns a readable name for logging.
func (o EnsureOutcome) String() string {
	if o == OutcomeAlreadyExists {
		return "already_exists"
	}
	return "applied"
}

// ErrSchemaEvolution marks DDL failures that are not "already exists"
// conditions (permission denied, disk full, ...). They are fatal to the
// calling request.
var ErrSchemaEvolution = errors.New("schema evolution failed")

// PostgreSQL error codes for objects that already exist.
const (
	pgDuplicateColumn = "42701"
	pgDuplicateTable  = "42P07"
)

// isDuplicateObject classifies "duplicate column/table" driver errors. The
// classification happens here, once, at the store-adapter boundary; callers
// only ever see the tagged EnsureOutcome.
func isDuplicateObject(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgDuplicateColumn || pqErr.Code == pgDuplicateTable
	}
	return false
}

// Guard idempotently ensures columns and tables exist before use. It is safe
// to call concurrently for the same object: exactly one caller applies the
// DDL and every other caller observes OutcomeAlreadyExists.
type Guard struct {
	db  *sql.DB
	log *zap.Logger
}

// NewGuard creates a Guard over the given connection pool.
func NewGuard(db *sql.DB, log *zap.Logger) *Guard {
	return &Guard{db: db, log: log}
}

// EnsureColumn makes sure table.column exists with the given definition.
// It introspects first and falls back to optimistically issuing the additive
// DDL; introspection can race another writer, so a duplicate-column error
// from the DDL is still a success.
func (g *Guard) EnsureColumn(ctx context.Context, table, column, definition string) (EnsureOutcome, error) {
	exists, err := g.columnExists(ctx, table, column)
	if err != nil {
		return 0, fmt.Errorf("%w: introspect %s.%s: %v", ErrSchemaEvolution, table, column, err)
	}
	if exists {
		return OutcomeAlreadyExists, nil
	}

	ddl := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition)
	if _, err := g.db.ExecContext(ctx, ddl); err != nil {
		if isDuplicateObject(err) {
			return OutcomeAlreadyExists, nil
		}
		return 0, fmt.Errorf("%w: add column %s.%s: %v", ErrSchemaEvolution, table, column, err)
	}

	g.log.Info("column added",
		zap.String("table", table),
		zap.String("column", column),
	)
	return OutcomeApplied, nil
}

// EnsureTable makes sure the named table exists, creating it with ddl if not.
// The ddl must not carry IF NOT EXISTS: the duplicate-table error is how a
// lost race is detected and reclassified as success.
func (g *Guard) EnsureTable(ctx context.Context, table, ddl string) (EnsureOutcome, error) {
	exists, err := g.tableExists(ctx, table)
	if err != nil {
		return 0, fmt.Errorf("%w: introspect table %s: %v", ErrSchemaEvolution, table, err)
	}
	if exists {
		return OutcomeAlreadyExists, nil
	}

	if _, err := g.db.ExecContext(ctx, ddl); err != nil {
		if isDuplicateObject(err) {
			return OutcomeAlreadyExists, nil
		}
		return 0, fmt.Errorf("%w: create table %s: %v", ErrSchemaEvolution, table, err)
	}

	g.log.Info("table created", zap.String("table", table))
	return OutcomeApplied, nil
}

func (g *Guard) columnExists(ctx context.Context, table, column string) (bool, error) {
	var exists bool
	err := g.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM information_schema.columns
			 WHERE table_name = $1 AND column_name = $2
		)`, table, column,
	).Scan(&exists)
	return exists, err
}

func (g *Guard) tableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := g.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM information_schema.tables
			 WHERE table_name = $1
		)`, table,
	).Scan(&exists)
	return exists, err
}
