package workerproc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"smartdoc-backend/internal/extract"
	"smartdoc-backend/internal/queue"
)

type fakeExtractor struct {
	err   error
	calls int
}

func (f *fakeExtractor) ExtractAndSave(ctx context.Context, documentID, ownerID string) (string, error) {
	f.calls++
	return "text", f.err
}

func TestParseMessage(t *testing.T) {
	if _, _, err := ParseMessage("  "); !errors.As(err, &ErrEmptyBody{}) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if _, meta, err := ParseMessage("{bad"); !errors.As(err, &ErrDecode{}) || meta.BodySHA == "" {
		t.Fatalf("expected ErrDecode with meta, got %v %+v", err, meta)
	}
	if _, _, err := ParseMessage(`{"documentId":"d1"}`); !errors.As(err, &ErrMissingDocument{}) {
		t.Fatalf("expected ErrMissingDocument, got %v", err)
	}
	msg, _, err := ParseMessage(`{"documentId":"d1","userId":"u1","version":1}`)
	if err != nil || msg.DocumentID != "d1" || msg.UserID != "u1" {
		t.Fatalf("unexpected parse result %+v %v", msg, err)
	}
}

func TestProcessClassifiesFailures(t *testing.T) {
	msg := queue.Message{DocumentID: "d1", UserID: "u1"}
	cases := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"missing document", extract.ErrNotFoundOrForbidden, true},
		{"corrupt file", fmt.Errorf("%w: bad pdf", extract.ErrExtractionFailed), true},
		{"storage outage", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Process(context.Background(), &fakeExtractor{err: tc.err}, msg)
			var pe ErrProcess
			if !errors.As(err, &pe) {
				t.Fatalf("expected ErrProcess, got %v", err)
			}
			if pe.Permanent != tc.permanent {
				t.Fatalf("expected permanent=%v", tc.permanent)
			}
		})
	}

	ex := &fakeExtractor{}
	if err := Process(context.Background(), ex, msg); err != nil || ex.calls != 1 {
		t.Fatalf("expected one successful call, got %v calls=%d", err, ex.calls)
	}
}
