package db

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// recordingBlobDeleter captures DeleteBlob calls for assertions.
type recordingBlobDeleter struct {
	mu   sync.Mutex
	refs []string
	fail bool
}

func (d *recordingBlobDeleter) DeleteBlob(_ context.Context, storageRef string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refs = append(d.refs, storageRef)
	if d.fail {
		return fmt.Errorf("blob store unavailable")
	}
	return nil
}

func (d *recordingBlobDeleter) calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.refs...)
}

func TestStartPurgeCleaner_Success(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	rows := sqlmock.NewRows([]string{"storage_ref"}).
		AddRow("blobs/a1").
		AddRow("").
		AddRow("blobs/c3")
	mock.ExpectQuery("DELETE FROM documents").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	blobs := &recordingBlobDeleter{}
	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartPurgeCleaner(ctx, dbMock, blobs, 10*time.Millisecond, time.Hour, logger)

	time.Sleep(200 * time.Millisecond)
	cancel()

	if got := blobs.calls(); len(got) != 2 {
		t.Errorf("expected 2 blob deletions (empty refs skipped), got %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStartPurgeCleaner_BlobFailureDoesNotStopPurge(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	rows := sqlmock.NewRows([]string{"storage_ref"}).
		AddRow("blobs/a1").
		AddRow("blobs/b2")
	mock.ExpectQuery("DELETE FROM documents").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	blobs := &recordingBlobDeleter{fail: true}

	var buf bytes.Buffer
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(&buf),
		zapcore.WarnLevel,
	)
	logger := zap.New(core)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartPurgeCleaner(ctx, dbMock, blobs, 10*time.Millisecond, time.Hour, logger)

	time.Sleep(200 * time.Millisecond)
	cancel()

	// Both blobs must still be attempted despite the first failure.
	if got := blobs.calls(); len(got) < 2 {
		t.Errorf("expected both blob deletions attempted, got %v", got)
	}
	if out := buf.String(); !strings.Contains(out, "failed to delete purged blob") {
		t.Errorf("expected warning log, got:\n%s", out)
	}
}

func TestStartPurgeCleaner_ErrorLogged(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	mock.ExpectQuery("DELETE FROM documents").
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(fmt.Errorf("db fail"))

	var buf bytes.Buffer
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(&buf),
		zapcore.ErrorLevel,
	)
	logger := zap.New(core)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartPurgeCleaner(ctx, dbMock, &recordingBlobDeleter{}, 10*time.Millisecond, time.Hour, logger)

	time.Sleep(200 * time.Millisecond)
	cancel()

	out := buf.String()
	if !strings.Contains(out, "failed to purge soft-deleted documents") {
		t.Errorf("expected error log, got:\n%s", out)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStartPurgeCleaner_CancelBeforeTicker(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())

	StartPurgeCleaner(ctx, dbMock, &recordingBlobDeleter{}, 100*time.Millisecond, time.Hour, logger)
	cancel()

	time.Sleep(50 * time.Millisecond)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected sql calls: %v", err)
	}
}
