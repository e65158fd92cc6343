package history

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"smartdoc-backend/internal/comparison"
)

// arrayArgs lets []string arguments reach the mock unchanged, as the pgx
// driver accepts them.
type arrayArgs struct{}

func (arrayArgs) ConvertValue(v any) (driver.Value, error) { return v, nil }

func newMock(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayArgs{}))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoInsertWritesArraysAndJSON(t *testing.T) {
	repo, mock := newMock(t)
	job := ComparisonJob{
		ID:            "job-1",
		UserID:        "u1",
		Status:        StatusCompleted,
		DocumentIDs:   []string{"d1", "d2"},
		DocumentNames: []string{"a.pdf", "b.txt"},
		Results:       &comparison.AIAnalysisResult{Summary: "ok", Contradictions: []comparison.Contradiction{}},
		CreatedAt:     time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO comparison_jobs").
		WithArgs("job-1", "u1", StatusCompleted, []string{"d1", "d2"}, []string{"a.pdf", "b.txt"}, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(context.Background(), job); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoInsertRejectsResultsOnUnfinishedJob(t *testing.T) {
	repo, mock := newMock(t)
	job := ComparisonJob{
		ID:      "job-1",
		UserID:  "u1",
		Status:  StatusProcessing,
		Results: &comparison.AIAnalysisResult{},
	}
	if err := repo.Insert(context.Background(), job); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected query: %v", err)
	}
}

func TestPGRepoListDecodesLegacyStringResults(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "status", "document_ids", "document_names", "results", "created_at"}).
		AddRow("job-2", "u1", StatusCompleted, "{d1,d2}", "{a.pdf,b.txt}", []byte(`{"summary":"new","contradictions":[]}`), created).
		AddRow("job-1", "u1", StatusCompleted, "{d1,d3}", "{a.pdf,c.md}", []byte(`"{\"summary\":\"old\",\"contradictions\":null}"`), created.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM comparison_jobs").
		WithArgs("u1", StatusCompleted).
		WillReturnRows(rows)

	jobs, err := repo.List(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if got := jobs[0].DocumentIDs; len(got) != 2 || got[1] != "d2" {
		t.Fatalf("unexpected document ids %v", got)
	}
	legacy := jobs[1].Results
	if legacy == nil || legacy.Summary != "old" || legacy.Contradictions == nil {
		t.Fatalf("legacy results not normalized: %+v", legacy)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetMissingIsNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM comparison_jobs").
		WithArgs("u1", "nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.Get(context.Background(), "u1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoDeleteScopedToOwner(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("DELETE FROM comparison_jobs").
		WithArgs("intruder", "job-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "intruder", "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
