package resume

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"resumescout/internal/engine"
)

func docxBytes(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	doc := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextPlain(t *testing.T) {
	doc := engine.RawDocument{Filename: "resume.txt", Data: []byte("\xEF\xBB\xBFJane Doe\njane@example.com")}
	text, err := ExtractText(doc)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if strings.HasPrefix(text, "\xEF\xBB\xBF") {
		t.Error("BOM not stripped")
	}
	if !strings.Contains(text, "Jane Doe") {
		t.Errorf("missing content in %q", text)
	}
}

func TestExtractTextDOCX(t *testing.T) {
	data := docxBytes(t, `<w:p><w:r><w:t>John Smith</w:t></w:r></w:p><w:p><w:r><w:t>Software Engineer</w:t></w:r></w:p>`)
	text, err := ExtractText(engine.RawDocument{Filename: "resume.docx", Data: data})
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, "John Smith") || !strings.Contains(text, "Software Engineer") {
		t.Errorf("unexpected text %q", text)
	}
	if !strings.Contains(text, "John Smith\n") {
		t.Errorf("paragraph break missing in %q", text)
	}
}

func TestExtractTextDOCXByMagic(t *testing.T) {
	// PK magic wins over a misleading extension.
	data := docxBytes(t, `<w:p><w:r><w:t>magic wins</w:t></w:r></w:p>`)
	text, err := ExtractText(engine.RawDocument{Filename: "resume.pdf", Data: data})
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, "magic wins") {
		t.Errorf("unexpected text %q", text)
	}
}

func TestExtractTextPDFRawFallback(t *testing.T) {
	// A structurally broken PDF whose content stream still holds literals.
	pdf := "%PDF-1.4\nstream\nBT (Hello) Tj (World) Tj ET\nendstream\n"
	text, err := ExtractText(engine.RawDocument{Filename: "resume.pdf", Data: []byte(pdf)})
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, "Hello") || !strings.Contains(text, "World") {
		t.Errorf("unexpected text %q", text)
	}
}

func TestExtractTextPDFTruncatedEscape(t *testing.T) {
	// A stream cut off right after a string-literal escape must fail
	// cleanly, not read past the end of the buffer.
	pdf := "%PDF-1.4 stream\nBT (\\endstream"
	_, err := ExtractText(engine.RawDocument{Filename: "resume.pdf", Data: []byte(pdf)})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("want ErrExtractionFailed, got %v", err)
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	_, err := ExtractText(engine.RawDocument{Filename: "photo.png", Data: []byte{0x89, 0x50, 0x4E, 0x47}})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractTextEmpty(t *testing.T) {
	_, err := ExtractText(engine.RawDocument{Filename: "resume.txt"})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("want ErrExtractionFailed, got %v", err)
	}
}

func TestExtractTextCorruptDOCX(t *testing.T) {
	data := append([]byte("PK\x03\x04"), []byte("not really a zip")...)
	_, err := ExtractText(engine.RawDocument{Filename: "resume.docx", Data: data})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("want ErrExtractionFailed, got %v", err)
	}
}
