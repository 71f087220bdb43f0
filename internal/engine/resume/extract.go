package resume

import (
	"archive/zip"
	"bytes"
	"compress/zlib"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"resumescout/internal/engine"
)

var (
	// ErrUnsupportedFormat means the document is not a PDF, DOCX, or plain
	// text file.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtractionFailed means the format was recognized but no usable text
	// could be pulled out of it.
	ErrExtractionFailed = errors.New("text extraction failed")
)

const maxDocumentSize = 16 << 20 // 16 MiB

// ExtractText converts an uploaded document into plain text. The format is
// decided by magic bytes first and file extension second, so a mislabeled
// upload still lands on the right extractor.
func ExtractText(doc engine.RawDocument) (string, error) {
	if len(doc.Data) == 0 {
		return "", fmt.Errorf("%w: empty document", ErrExtractionFailed)
	}
	if len(doc.Data) > maxDocumentSize {
		return "", fmt.Errorf("%w: document exceeds %d bytes", ErrExtractionFailed, maxDocumentSize)
	}

	switch detectFormat(doc) {
	case "pdf":
		return extractPDF(doc.Data)
	case "docx":
		return extractDOCX(doc.Data)
	case "txt":
		return extractPlain(doc.Data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(doc.Filename))
	}
}

func detectFormat(doc engine.RawDocument) string {
	if bytes.HasPrefix(doc.Data, []byte("%PDF-")) {
		return "pdf"
	}
	if bytes.HasPrefix(doc.Data, []byte("PK\x03\x04")) {
		return "docx"
	}
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return "pdf"
	case ".docx", ".doc":
		return "docx"
	case ".txt", ".text", ".md", "":
		return "txt"
	}
	return ""
}

func extractPlain(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	return string(data)
}

func extractPDF(data []byte) (string, error) {
	if text := pdfPlainText(data); strings.TrimSpace(text) != "" {
		return text, nil
	}
	// Damaged xref tables defeat the structured reader; fall back to scanning
	// content streams directly.
	if text := pdfRawScan(data); strings.TrimSpace(text) != "" {
		return text, nil
	}
	return "", fmt.Errorf("%w: no text in pdf", ErrExtractionFailed)
}

// pdfPlainText reads the document through the pdf library. The library panics
// on some malformed inputs, so the recover keeps a bad upload from taking the
// process down.
func pdfPlainText(data []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// pdfRawScan walks stream...endstream blocks, inflates the zlib-compressed
// ones, and collects parenthesized string literals from the text operators.
func pdfRawScan(data []byte) string {
	var sb strings.Builder
	rest := data
	for {
		i := bytes.Index(rest, []byte("stream"))
		if i < 0 {
			break
		}
		rest = rest[i+len("stream"):]
		rest = bytes.TrimLeft(rest, "\r\n")
		j := bytes.Index(rest, []byte("endstream"))
		if j < 0 {
			break
		}
		raw := rest[:j]
		rest = rest[j:]

		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			if inflated, err := io.ReadAll(io.LimitReader(zr, maxDocumentSize)); err == nil {
				raw = inflated
			}
			zr.Close()
		}
		collectPDFLiterals(raw, &sb)
	}
	return sb.String()
}

func collectPDFLiterals(stream []byte, sb *strings.Builder) {
	inText := false
	for k := 0; k < len(stream); k++ {
		if !inText {
			if k+2 <= len(stream) && stream[k] == 'B' && k+1 < len(stream) && stream[k+1] == 'T' {
				inText = true
				k++
			}
			continue
		}
		switch stream[k] {
		case 'E':
			if k+1 < len(stream) && stream[k+1] == 'T' {
				inText = false
				sb.WriteString("\n")
				k++
			}
		case '(':
			depth := 1
			k++
			for ; k < len(stream) && depth > 0; k++ {
				switch stream[k] {
				case '\\':
					// A trailing backslash in a truncated stream has no
					// escaped byte to read.
					k++
					if k >= len(stream) {
						continue
					}
				case '(':
					depth++
				case ')':
					depth--
					if depth == 0 {
						continue
					}
				}
				if depth > 0 && stream[k] >= 0x20 && stream[k] < 0x7f {
					sb.WriteByte(stream[k])
				}
			}
			sb.WriteString(" ")
			k--
		}
	}
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a zip archive: %v", ErrExtractionFailed, err)
	}

	if text, err := docxPart(zr, "word/document.xml"); err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	// Some generators ship the body under a nonstandard part name; scan every
	// xml member before giving up.
	var sb strings.Builder
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".xml") || f.Name == "word/document.xml" {
			continue
		}
		if text, err := docxPart(zr, f.Name); err == nil {
			sb.WriteString(text)
		}
	}
	if strings.TrimSpace(sb.String()) != "" {
		return sb.String(), nil
	}
	return "", fmt.Errorf("%w: no text in docx", ErrExtractionFailed)
}

func docxPart(zr *zip.Reader, name string) (string, error) {
	f, err := zr.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	dec := xml.NewDecoder(io.LimitReader(f, maxDocumentSize))
	var sb strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inT = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inT = false
			case "p":
				sb.WriteString("\n")
			case "tab":
				sb.WriteString("\t")
			}
		case xml.CharData:
			if inT {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
