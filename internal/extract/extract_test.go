package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	files := map[string]string{
		"[Content_Types].xml":           `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestFromBytesPlainText(t *testing.T) {
	got, err := FromBytes(context.Background(), []byte("\xef\xbb\xbfThe rent is 500."), "text/plain; charset=utf-8", "a.txt")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != "The rent is 500." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFromBytesEmptyUsesPlaceholder(t *testing.T) {
	got, err := FromBytes(context.Background(), []byte("  \n\t "), "text/plain", "blank.txt")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != EmptyPlaceholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestFromBytesDocx(t *testing.T) {
	data := buildDocx(t, "Term is 12 months.", "Notice is 30 days.")
	got, err := FromBytes(context.Background(), data, MimeDOCX, "lease.docx")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !strings.Contains(got, "Term is 12 months.\nNotice is 30 days.") {
		t.Fatalf("unexpected docx text %q", got)
	}
}

func TestFromBytesZipDocxNormalizes(t *testing.T) {
	data := buildDocx(t, "hello")
	if _, err := FromBytes(context.Background(), data, "application/zip", "x.bin"); err != nil {
		t.Fatalf("expected docx detection from zip content, got %v", err)
	}
}

func TestFromBytesUnsupportedType(t *testing.T) {
	_, err := FromBytes(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png", "a.png")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestFromBytesCorruptPDF(t *testing.T) {
	_, err := FromBytes(context.Background(), []byte("%PDF-1.4 this is not really a pdf"), MimePDF, "bad.pdf")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("corrupt payload must not be reported as unsupported")
	}
}

func TestNormalizeMimeType(t *testing.T) {
	tests := []struct {
		mime, name, want string
	}{
		{"application/pdf", "a.pdf", MimePDF},
		{"text/plain; charset=utf-8", "a.txt", MimeText},
		{"application/octet-stream", "b.docx", MimeDOCX},
		{"", "c.pdf", MimePDF},
		{"application/zip", "d.zip", "application/zip"},
	}
	for _, tt := range tests {
		if got := NormalizeMimeType(tt.mime, tt.name, nil); got != tt.want {
			t.Fatalf("NormalizeMimeType(%q, %q) = %q, want %q", tt.mime, tt.name, got, tt.want)
		}
	}
}
