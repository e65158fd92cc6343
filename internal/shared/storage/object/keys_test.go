package object

import (
	"strings"
	"testing"
)

func TestHashOwnerKey(t *testing.T) {
	id := "google:12345"
	got := HashOwnerKey(id)
	if got != HashOwnerKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "report.pdf", want: "report.pdf"},
		{in: "a/b\\c.txt", want: "a_b_c.txt"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestNewUploadKeyIsNamespacedAndUnique(t *testing.T) {
	k1, err := NewUploadKey("user-1", "policy.docx")
	if err != nil {
		t.Fatalf("NewUploadKey: %v", err)
	}
	k2, _ := NewUploadKey("user-1", "policy.docx")
	if k1 == k2 {
		t.Fatalf("expected unique keys")
	}
	if !strings.HasPrefix(k1, HashOwnerKey("user-1")+"/") || !strings.HasSuffix(k1, "_policy.docx") {
		t.Fatalf("unexpected key layout: %s", k1)
	}
}

func TestExtractedTextKeyIsDeterministic(t *testing.T) {
	if ExtractedTextKey("u/a.pdf") != "u/a.pdf.extracted.txt" {
		t.Fatalf("unexpected text key: %s", ExtractedTextKey("u/a.pdf"))
	}
}
