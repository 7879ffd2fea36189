package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupPrincipalRepo(t *testing.T) (*PostgresPrincipalRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresPrincipalRepository(db)
	cleanup := func() {
		db.Close()
	}
	return repo, mock, cleanup
}

func expectRekeyPreamble(mock sqlmock.Sqlmock, oldID, newID string) {
	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(oldID, newID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET LOCAL session_replication_role = replica").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestRekey_Success(t *testing.T) {
	repo, mock, cleanup := setupPrincipalRepo(t)
	defer cleanup()

	expectRekeyPreamble(mock, "old-uuid-1", "E-200")
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE documents SET owner_id = $2 WHERE owner_id = $1`)).
		WithArgs("old-uuid-1", "E-200").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE principals SET id = $2 WHERE id = $1`)).
		WithArgs("old-uuid-1", "E-200").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET session_replication_role = DEFAULT").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	result, err := repo.Rekey(context.Background(), "old-uuid-1", "E-200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Migrated {
		t.Errorf("expected migrated=true")
	}
	if result.DocumentsUpdated != 5 {
		t.Errorf("expected 5 documents updated, got %d", result.DocumentsUpdated)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRekey_AlreadyMigratedIsNoOp(t *testing.T) {
	repo, mock, cleanup := setupPrincipalRepo(t)
	defer cleanup()

	// Second run of the same rekey: the documents already point at the new
	// id and no principal row carries the old id. This must succeed.
	expectRekeyPreamble(mock, "old-uuid-1", "E-200")
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE documents SET owner_id = $2 WHERE owner_id = $1`)).
		WithArgs("old-uuid-1", "E-200").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE principals SET id = $2 WHERE id = $1`)).
		WithArgs("old-uuid-1", "E-200").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET session_replication_role = DEFAULT").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	result, err := repo.Rekey(context.Background(), "old-uuid-1", "E-200")
	if err != nil {
		t.Fatalf("already-migrated must not be an error, got: %v", err)
	}
	if result.Migrated {
		t.Errorf("expected migrated=false")
	}
	if result.DocumentsUpdated != 0 {
		t.Errorf("expected 0 documents updated, got %d", result.DocumentsUpdated)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRekey_RollbackOnDependentUpdateFailure(t *testing.T) {
	repo, mock, cleanup := setupPrincipalRepo(t)
	defer cleanup()

	expectRekeyPreamble(mock, "old-uuid-1", "E-200")
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE documents SET owner_id = $2 WHERE owner_id = $1`)).
		WithArgs("old-uuid-1", "E-200").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	result, err := repo.Rekey(context.Background(), "old-uuid-1", "E-200")
	if !errors.Is(err, ErrRekeyTransaction) {
		t.Fatalf("expected ErrRekeyTransaction, got %v", err)
	}
	if result.Migrated || result.DocumentsUpdated != 0 {
		t.Errorf("expected zero result after rollback, got %+v", result)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRekey_RollbackOnCommitFailure(t *testing.T) {
	repo, mock, cleanup := setupPrincipalRepo(t)
	defer cleanup()

	expectRekeyPreamble(mock, "a", "b")
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE documents SET owner_id = $2 WHERE owner_id = $1`)).
		WithArgs("a", "b").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE principals SET id = $2 WHERE id = $1`)).
		WithArgs("a", "b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET session_replication_role = DEFAULT").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit().WillReturnError(errors.New("commit failed"))

	_, err := repo.Rekey(context.Background(), "a", "b")
	if !errors.Is(err, ErrRekeyTransaction) {
		t.Fatalf("expected ErrRekeyTransaction, got %v", err)
	}
}

func TestGetByID_Success(t *testing.T) {
	repo, mock, cleanup := setupPrincipalRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "role", "status", "location"}).
		AddRow("E-200", "employee", "active", "Berlin")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, role, status, COALESCE(location, '') FROM principals WHERE id = $1`)).
		WithArgs("E-200").
		WillReturnRows(rows)

	p, err := repo.GetByID(context.Background(), "E-200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "E-200" || p.Role != "employee" || p.Location != "Berlin" {
		t.Errorf("unexpected principal: %+v", p)
	}
}

func TestExists(t *testing.T) {
	repo, mock, cleanup := setupPrincipalRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM principals WHERE id = $1)`)).
		WithArgs("E-200").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "E-200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Errorf("expected exists=true")
	}
}
