package comparison

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"smartdoc-backend/internal/extract"
	"smartdoc-backend/internal/llm"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rg := r.Group("/api/v1")
	rg.Use(func(c *gin.Context) {
		c.Set("userId", "u1")
		c.Next()
	})
	NewHandler(f.svc, nil).RegisterRoutes(rg)
	return r
}

func postCompare(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comparisons", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestCompareHandlerSuccess(t *testing.T) {
	f := newFixture()
	rec := postCompare(newTestRouter(f), `{"documentIds":["d1","d2"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got AIAnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Summary != "conflict" || len(got.Contradictions) != 1 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestCompareHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		setup    func(f *fixture)
		status   int
		code     string
		document string
	}{
		{name: "bad body", body: `{`, status: http.StatusBadRequest, code: "validation_error"},
		{name: "one document", body: `{"documentIds":["d1"]}`, status: http.StatusBadRequest, code: "insufficient_documents"},
		{
			name:   "no credits",
			body:   `{"documentIds":["d1","d2"]}`,
			setup:  func(f *fixture) { f.ledger.balance = 0 },
			status: http.StatusPaymentRequired,
			code:   "insufficient_credits",
		},
		{
			name:     "unknown document",
			body:     `{"documentIds":["d1","missing"]}`,
			status:   http.StatusNotFound,
			code:     "not_found",
			document: "missing",
		},
		{
			name: "unsupported type",
			body: `{"documentIds":["d1","d2"]}`,
			setup: func(f *fixture) {
				f.texts.errs = map[string]error{"d2": fmt.Errorf("%w: image/png", extract.ErrUnsupportedType)}
			},
			status:   http.StatusUnsupportedMediaType,
			code:     "unsupported_type",
			document: "b.txt",
		},
		{
			name: "extraction failed",
			body: `{"documentIds":["d1","d2"]}`,
			setup: func(f *fixture) {
				f.texts.errs = map[string]error{"d1": fmt.Errorf("%w: empty", extract.ErrExtractionFailed)}
			},
			status:   http.StatusUnprocessableEntity,
			code:     "extraction_failed",
			document: "a.pdf",
		},
		{
			name:   "model overloaded",
			body:   `{"documentIds":["d1","d2"]}`,
			setup:  func(f *fixture) { f.model.err = llm.ErrModelOverloaded },
			status: http.StatusServiceUnavailable,
			code:   "model_overloaded",
		},
		{
			name:   "model failed",
			body:   `{"documentIds":["d1","d2"]}`,
			setup:  func(f *fixture) { f.model.err = errors.New("boom") },
			status: http.StatusBadGateway,
			code:   "model_call_failed",
		},
		{
			name:   "unparseable output",
			body:   `{"documentIds":["d1","d2"]}`,
			setup:  func(f *fixture) { f.model.out = `{"summary": 3}` },
			status: http.StatusBadGateway,
			code:   "ai_response_invalid",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			if tc.setup != nil {
				tc.setup(f)
			}
			rec := postCompare(newTestRouter(f), tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			var env errorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, env.Error.Code)
			}
			if tc.document != "" && env.Error.Details["document"] != tc.document {
				t.Fatalf("expected document %q in details, got %v", tc.document, env.Error.Details)
			}
			if tc.status == http.StatusServiceUnavailable && env.Error.Details["retryable"] != true {
				t.Fatalf("expected retryable flag, got %v", env.Error.Details)
			}
		})
	}
}

func TestCompareHandlerRunsLimiterFirst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture()
	r := gin.New()
	limit := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
	}
	NewHandler(f.svc, limit).RegisterRoutes(r.Group("/api/v1"))

	rec := postCompare(r, `{"documentIds":["d1","d2"]}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if f.model.calls != 0 {
		t.Fatalf("limited request must not reach the model")
	}
}
