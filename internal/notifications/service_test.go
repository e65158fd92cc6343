package notifications

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func TestNotifyListDeleteScopedToOwner(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepo())

	if err := svc.NotifyComparison(ctx, "u1", []string{"a.pdf", "b.docx"}, 2); err != nil {
		t.Fatalf("NotifyComparison: %v", err)
	}
	items, err := svc.List(ctx, "u1")
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one notification, got %d %v", len(items), err)
	}
	if !strings.Contains(items[0].Description, "a.pdf, b.docx") || !strings.Contains(items[0].Description, "2 contradiction") {
		t.Fatalf("unexpected description %q", items[0].Description)
	}
	if other, _ := svc.List(ctx, "u2"); len(other) != 0 {
		t.Fatalf("other users must not see the notification")
	}
	if err := svc.Delete(ctx, "u2", items[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := svc.Delete(ctx, "u1", items[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestPurgeRemovesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	svc := NewService(repo)
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_ = repo.Insert(ctx, Notification{ID: "old", UserID: "u1", CreatedAt: now.Add(-40 * 24 * time.Hour)})
	_ = repo.Insert(ctx, Notification{ID: "new", UserID: "u1", CreatedAt: now.Add(-time.Hour)})

	n, err := svc.Purge(ctx, 30*24*time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("expected one purged, got %d %v", n, err)
	}
	items, _ := svc.List(ctx, "u1")
	if len(items) != 1 || items[0].ID != "new" {
		t.Fatalf("unexpected remaining %+v", items)
	}
}

func TestPGPurgeUsesCutoff(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	cutoff := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM notifications WHERE created_at < \\$1").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := (&PGRepo{DB: db}).PurgeOlderThan(context.Background(), cutoff)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 purged, got %d %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteHandlerReturns204(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := NewMemoryRepo()
	_ = repo.Insert(context.Background(), Notification{ID: "n1", UserID: "u1", CreatedAt: time.Now()})
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userId", "u1"); c.Next() })
	NewHandler(NewService(repo)).RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/notifications/n1", nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/notifications/n1", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", resp.Code)
	}
}
