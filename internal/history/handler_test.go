package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newHistoryRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rg := r.Group("/api/v1")
	rg.Use(func(c *gin.Context) {
		c.Set("userId", "u1")
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(rg)
	return r
}

func TestHistoryRoutes(t *testing.T) {
	svc := newTestService(fakeNames{names: map[string]string{"d1": "a.pdf", "d2": "b.txt"}}, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	id, err := svc.Record(context.Background(), "u1", []string{"d1", "d2"}, []string{"a.pdf", "b.txt"}, result(1))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	r := newHistoryRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list struct {
		History []ComparisonJob `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list.History) != 1 {
		t.Fatalf("unexpected list body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", rec.Code)
	}
	var sum Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil || sum.TotalComparisons != 1 || sum.ConflictPercentage != 100 {
		t.Fatalf("unexpected summary body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/history/"+id, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}
