package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"smartdoc-backend/internal/shared/auth"
	"smartdoc-backend/internal/shared/config"
)

type scriptedModel struct {
	out   string
	calls int
}

func (m *scriptedModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.out, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:               "dev",
		ObjectStoreType:   "local",
		LocalStoreDir:     t.TempDir(),
		TextCacheSize:     8,
		DefaultCredits:    2,
		ComparisonCost:    1,
		CompareRateLimit:  10,
		CompareRateWindow: time.Minute,
	}
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return "Bearer " + token
}

func do(t *testing.T, app *App, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, app *App, token string, files map[string]string) []string {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = part.Write([]byte(content))
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := do(t, app, req, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Documents []struct {
			DocumentID string `json:"documentId"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	ids := make([]string, 0, len(body.Documents))
	for _, d := range body.Documents {
		ids = append(ids, d.DocumentID)
	}
	return ids
}

func TestComparisonEndToEnd(t *testing.T) {
	t.Setenv("JWT_SECRET", "bootstrap-test-secret")
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	model := &scriptedModel{out: "```json\n" + `{"summary":"Deadlines disagree.","contradictions":[{"id":"c1","explanation":"30 vs 14 days","severity":"high","sources":[{"documentName":"a.txt","statement":"30 days"},{"documentName":"b.txt","statement":"14 days"}]}]}` + "\n```"}
	app.ComparisonService.Model = model

	token := bearer(t, "google:1")
	ids := upload(t, app, token, map[string]string{"a.txt": "Refunds within 30 days.", "b.txt": "Refunds within 14 days."})
	if len(ids) != 2 {
		t.Fatalf("expected 2 uploaded ids, got %v", ids)
	}

	payload, _ := json.Marshal(map[string]any{"documentIds": ids})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comparisons", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, app, req, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("compare: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"severity":"high"`) {
		t.Fatalf("unexpected compare body %s", rec.Body.String())
	}

	rec = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil), token)
	var usage struct {
		Credits             int `json:"credits"`
		DocumentsUploaded   int `json:"documentsUploaded"`
		OperationsPerformed int `json:"operationsPerformed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &usage); err != nil {
		t.Fatalf("decode usage: %v", err)
	}
	if usage.Credits != 1 || usage.DocumentsUploaded != 2 || usage.OperationsPerformed != 1 {
		t.Fatalf("unexpected usage %+v", usage)
	}

	rec = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil), token)
	if !strings.Contains(rec.Body.String(), `"documentNames":["a.txt","b.txt"]`) && !strings.Contains(rec.Body.String(), `"documentNames":["b.txt","a.txt"]`) {
		t.Fatalf("unexpected history %s", rec.Body.String())
	}

	rec = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil), token)
	if !strings.Contains(rec.Body.String(), "Analysis Complete") {
		t.Fatalf("expected a completion notification, got %s", rec.Body.String())
	}
}

func TestComparisonStopsWhenCreditsRunOut(t *testing.T) {
	t.Setenv("JWT_SECRET", "bootstrap-test-secret")
	cfg := testConfig(t)
	cfg.DefaultCredits = 1
	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	model := &scriptedModel{out: `{"summary":"fine","contradictions":[]}`}
	app.ComparisonService.Model = model

	token := bearer(t, "google:2")
	ids := upload(t, app, token, map[string]string{"a.txt": "one", "b.txt": "two"})
	payload, _ := json.Marshal(map[string]any{"documentIds": ids})

	for i, want := range []int{http.StatusOK, http.StatusPaymentRequired} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/comparisons", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		if rec := do(t, app, req, token); rec.Code != want {
			t.Fatalf("compare #%d: expected %d, got %d: %s", i, want, rec.Code, rec.Body.String())
		}
	}
	if model.calls != 1 {
		t.Fatalf("expected a single model call, got %d", model.calls)
	}
}

func TestComparisonRejectsUnsupportedUpload(t *testing.T) {
	t.Setenv("JWT_SECRET", "bootstrap-test-secret")
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	model := &scriptedModel{out: `{"summary":"fine","contradictions":[]}`}
	app.ComparisonService.Model = model

	token := bearer(t, "google:3")
	ids := upload(t, app, token, map[string]string{"a.txt": "Refunds within 30 days.", "scan.png": "\x89PNG\r\n\x1a\n"})
	payload, _ := json.Marshal(map[string]any{"documentIds": ids})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comparisons", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := do(t, app, req, token)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "scan.png") {
		t.Fatalf("expected the unsupported file to be named, got %s", rec.Body.String())
	}
	if model.calls != 0 {
		t.Fatalf("model must not be called, got %d calls", model.calls)
	}
}

func TestBuildRejectsMissingDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}
