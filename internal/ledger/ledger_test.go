package ledger

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

func newMock(t *testing.T) (*Recorder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS conversion_ledger").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec, err := NewRecorder(context.Background(), db)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	return rec, mock
}

func TestNewRecorder_TableError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	if _, err := NewRecorder(context.Background(), db); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecord(t *testing.T) {
	tests := []struct {
		name   string
		item   pipeline.ItemResult
		status string
	}{
		{
			name:   "succeeded",
			item:   pipeline.ItemResult{RunID: "r1", InputPath: "/in/a.png", OutputPath: "/out/x.jpg", Width: 50, Height: 25},
			status: pipeline.StatusSucceeded,
		},
		{
			name:   "failed",
			item:   pipeline.ItemResult{RunID: "r2", InputPath: "/in/b.png", Error: "source not found"},
			status: pipeline.StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, mock := newMock(t)
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO conversion_ledger")).
				WithArgs(tt.item.RunID, tt.item.InputPath, tt.item.OutputPath, tt.status, tt.item.Error, tt.item.Width, tt.item.Height).
				WillReturnResult(sqlmock.NewResult(1, 1))

			if err := rec.Record(context.Background(), tt.item); err != nil {
				t.Fatalf("Record: %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSeenCount(t *testing.T) {
	rec, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM conversion_ledger")).
		WithArgs("/in/a.png", pipeline.StatusSucceeded).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := rec.SeenCount(context.Background(), "/in/a.png")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("SeenCount = %d, want 3", n)
	}
}

func TestObserve_SwallowsErrors(t *testing.T) {
	rec, mock := newMock(t)
	mock.ExpectExec("INSERT INTO conversion_ledger").WillReturnError(errors.New("connection reset"))

	rec.Observe(pipeline.ItemResult{RunID: "r3", InputPath: "/in/c.png", Error: "decode failed"})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestObserve_CountsPriorConversions(t *testing.T) {
	rec, mock := newMock(t)
	item := pipeline.ItemResult{RunID: "r4", InputPath: "/in/d.png", OutputPath: "/out/y.jpg", Width: 8, Height: 8}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM conversion_ledger")).
		WithArgs(item.InputPath, pipeline.StatusSucceeded).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO conversion_ledger")).
		WithArgs(item.RunID, item.InputPath, item.OutputPath, pipeline.StatusSucceeded, "", 8, 8).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec.Observe(item)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestObserve_LookupFailureStillRecords(t *testing.T) {
	rec, mock := newMock(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("timeout"))
	mock.ExpectExec("INSERT INTO conversion_ledger").WillReturnResult(sqlmock.NewResult(1, 1))

	rec.Observe(pipeline.ItemResult{RunID: "r5", InputPath: "/in/e.png", OutputPath: "/out/z.jpg"})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
