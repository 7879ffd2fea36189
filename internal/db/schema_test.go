package db

import (
	"context"
	"errors"
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func setupGuard(t *testing.T) (*Guard, sqlmock.Sqlmock, func()) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	guard := NewGuard(dbMock, zap.NewNop())
	cleanup := func() {
		dbMock.Close()
	}
	return guard, mock, cleanup
}

func existsRow(exists bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(exists)
}

func TestEnsureColumn_AlreadyExistsViaIntrospection(t *testing.T) {
	guard, mock, cleanup := setupGuard(t)
	defer cleanup()

	mock.ExpectQuery("information_schema.columns").
		WithArgs("documents", "is_encrypted").
		WillReturnRows(existsRow(true))

	outcome, err := guard.EnsureColumn(context.Background(), "documents", "is_encrypted", "BOOLEAN NOT NULL DEFAULT FALSE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeAlreadyExists {
		t.Errorf("expected already_exists, got %s", outcome)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestEnsureColumn_Applied(t *testing.T) {
	guard, mock, cleanup := setupGuard(t)
	defer cleanup()

	mock.ExpectQuery("information_schema.columns").
		WithArgs("documents", "storage_ref").
		WillReturnRows(existsRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE documents ADD COLUMN storage_ref TEXT`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	outcome, err := guard.EnsureColumn(context.Background(), "documents", "storage_ref", "TEXT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeApplied {
		t.Errorf("expected applied, got %s", outcome)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestEnsureColumn_LostRaceIsSuccess(t *testing.T) {
	guard, mock, cleanup := setupGuard(t)
	defer cleanup()

	// Introspection says absent, but another writer adds the column before
	// our DDL lands. The duplicate-column error must come back as success.
	mock.ExpectQuery("information_schema.columns").
		WithArgs("documents", "storage_ref").
		WillReturnRows(existsRow(false))
	mock.ExpectExec("ALTER TABLE documents ADD COLUMN storage_ref").
		WillReturnError(&pq.Error{Code: pgDuplicateColumn})

	outcome, err := guard.EnsureColumn(context.Background(), "documents", "storage_ref", "TEXT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeAlreadyExists {
		t.Errorf("expected already_exists, got %s", outcome)
	}
}

func TestEnsureColumn_FatalError(t *testing.T) {
	guard, mock, cleanup := setupGuard(t)
	defer cleanup()

	mock.ExpectQuery("information_schema.columns").
		WithArgs("documents", "storage_ref").
		WillReturnRows(existsRow(false))
	mock.ExpectExec("ALTER TABLE documents ADD COLUMN storage_ref").
		WillReturnError(&pq.Error{Code: "42501", Message: "permission denied"})

	_, err := guard.EnsureColumn(context.Background(), "documents", "storage_ref", "TEXT")
	if !errors.Is(err, ErrSchemaEvolution) {
		t.Errorf("expected ErrSchemaEvolution, got %v", err)
	}
}

func TestEnsureColumn_ConcurrentCallers(t *testing.T) {
	guard, mock, cleanup := setupGuard(t)
	defer cleanup()

	const callers = 8
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < callers; i++ {
		mock.ExpectQuery("information_schema.columns").
			WithArgs("documents", "is_encrypted").
			WillReturnRows(existsRow(false))
	}
	// Exactly one caller wins the DDL race; everyone else hits the
	// duplicate-column error and must still succeed.
	mock.ExpectExec("ALTER TABLE documents ADD COLUMN is_encrypted").
		WillReturnResult(sqlmock.NewResult(0, 0))
	for i := 0; i < callers-1; i++ {
		mock.ExpectExec("ALTER TABLE documents ADD COLUMN is_encrypted").
			WillReturnError(&pq.Error{Code: pgDuplicateColumn})
	}

	var applied atomic.Int32
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			outcome, err := guard.EnsureColumn(ctx, "documents", "is_encrypted", "BOOLEAN NOT NULL DEFAULT FALSE")
			if err != nil {
				return err
			}
			if outcome == OutcomeApplied {
				applied.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("no concurrent call may fail: %v", err)
	}
	if got := applied.Load(); got != 1 {
		t.Errorf("expected exactly one applied outcome, got %d", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestEnsureTable_Applied(t *testing.T) {
	guard, mock, cleanup := setupGuard(t)
	defer cleanup()

	ddl := `CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT NOT NULL)`
	mock.ExpectQuery("information_schema.tables").
		WithArgs("settings").
		WillReturnRows(existsRow(false))
	mock.ExpectExec(regexp.QuoteMeta(ddl)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	outcome, err := guard.EnsureTable(context.Background(), "settings", ddl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeApplied {
		t.Errorf("expected applied, got %s", outcome)
	}
}

func TestEnsureTable_LostRaceIsSuccess(t *testing.T) {
	guard, mock, cleanup := setupGuard(t)
	defer cleanup()

	ddl := `CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT NOT NULL)`
	mock.ExpectQuery("information_schema.tables").
		WithArgs("settings").
		WillReturnRows(existsRow(false))
	mock.ExpectExec("CREATE TABLE settings").
		WillReturnError(&pq.Error{Code: pgDuplicateTable})

	outcome, err := guard.EnsureTable(context.Background(), "settings", ddl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeAlreadyExists {
		t.Errorf("expected already_exists, got %s", outcome)
	}
}

func TestRunMigrations_SkipsPresentObjects(t *testing.T) {
	guard, mock, cleanup := setupGuard(t)
	defer cleanup()

	// First step: settings table missing, gets created.
	mock.ExpectQuery("information_schema.tables").
		WithArgs("settings").
		WillReturnRows(existsRow(false))
	mock.ExpectExec("CREATE TABLE settings").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Every column step introspects as already present.
	for _, m := range Migrations[1:] {
		mock.ExpectQuery("information_schema.columns").
			WithArgs(m.Table, m.Column).
			WillReturnRows(existsRow(true))
	}

	if err := guard.Run(context.Background(), Migrations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRunMigrations_StopsOnFatalError(t *testing.T) {
	guard, mock, cleanup := setupGuard(t)
	defer cleanup()

	mock.ExpectQuery("information_schema.tables").
		WithArgs("settings").
		WillReturnRows(existsRow(false))
	mock.ExpectExec("CREATE TABLE settings").
		WillReturnError(&pq.Error{Code: "53100", Message: "disk full"})

	err := guard.Run(context.Background(), Migrations)
	if !errors.Is(err, ErrSchemaEvolution) {
		t.Errorf("expected ErrSchemaEvolution, got %v", err)
	}
}
