package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_extractor.go -package=mocks pdf-rag/internal/indexer Extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"pdf-rag/internal/contextutil"
)

// ErrInvalidPDF is returned when a file cannot be parsed as a PDF.
var ErrInvalidPDF = errors.New("invalid PDF")

// Extractor turns a document on disk into chunks.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Chunk, error)
}

// PDFExtractor reads PDFs page by page with github.com/ledongthuc/pdf.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns one chunk per page. The first non-empty line of a page is its
// heading and the trimmed remainder its content. Blank pages yield a chunk
// with an empty heading and nil content.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (chunks []Chunk, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	// The pdf package panics on malformed objects.
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = fmt.Errorf("%w %s: %v", ErrInvalidPDF, filepath.Base(path), r)
		}
	}()

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidPDF, filepath.Base(path), err)
	}

	source := filepath.Base(path)
	numPages := reader.NumPage()
	chunks = make([]Chunk, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d of %s: %w", i, source, err)
		}

		chunk := splitPage(text)
		chunk.Page = i
		chunk.Source = source
		chunks = append(chunks, chunk)
	}

	logger.DebugContext(ctx, "extracted PDF", "source", source, "pages", numPages, "chunks", len(chunks))
	return chunks, nil
}

// splitPage separates the heading line from the rest of the page text.
func splitPage(text string) Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return Chunk{}
	}

	heading, rest, _ := strings.Cut(text, "\n")
	chunk := Chunk{Heading: strings.TrimSpace(heading)}
	if rest = strings.TrimSpace(rest); rest != "" {
		chunk.Content = &rest
	}
	return chunk
}
