package s3

import (
	"io"
	"strings"
	"testing"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "owner/file.pdf", want: "owner/file.pdf"},
		{name: "simple prefix", prefix: "docs", key: "owner/file.pdf", want: "docs/owner/file.pdf"},
		{name: "prefix and key slashes", prefix: "/docs/", key: "/owner/file.pdf", want: "docs/owner/file.pdf"},
		{name: "text companion", prefix: "docs", key: "owner/file.pdf.extracted.txt", want: "docs/owner/file.pdf.extracted.txt"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	c := &countingReader{r: strings.NewReader("twelve bytes")}
	if _, err := io.ReadAll(c); err != nil {
		t.Fatalf("read: %v", err)
	}
	if c.n != 12 {
		t.Fatalf("expected 12 bytes counted, got %d", c.n)
	}
}
