package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_service.go -package=mocks pdf-rag/internal/service SearchService

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"pdf-rag/internal/contextutil"
	"pdf-rag/internal/rag"
)

// Answer formats accepted by Search.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// SearchRequest represents a search in the domain layer.
type SearchRequest struct {
	ChatID string
	Query  string
	Format string
}

// SearchService answers questions from a chat's documents.
type SearchService interface {
	// Search returns the answer as a list of strings, Markdown unless HTML is requested.
	Search(ctx context.Context, req SearchRequest) ([]string, error)
}

// searchService implements SearchService.
type searchService struct {
	engine   rag.Engine
	markdown goldmark.Markdown
}

// NewSearchService creates a new SearchService.
func NewSearchService(engine rag.Engine) SearchService {
	return &searchService{
		engine: engine,
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
			),
		),
	}
}

// Search validates the request and runs the RAG engine. A blank query is
// answered without any upstream call.
func (s *searchService) Search(ctx context.Context, req SearchRequest) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateChatID(req.ChatID); err != nil {
		logger.WarnContext(ctx, "invalid search request", "error", err)
		return nil, err
	}

	format := strings.ToLower(strings.TrimSpace(req.Format))
	switch format {
	case "", FormatMarkdown, FormatHTML:
	default:
		return nil, &ValidationError{Field: "format", Message: fmt.Sprintf("must be %s or %s", FormatMarkdown, FormatHTML)}
	}

	answers, err := s.engine.Answer(ctx, req.ChatID, req.Query)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "chat_id", req.ChatID, "error", err)
		return nil, upstream("rag", err)
	}

	if format == FormatHTML {
		return s.renderHTML(answers)
	}
	return answers, nil
}

func (s *searchService) renderHTML(answers []string) ([]string, error) {
	out := make([]string, len(answers))
	for i, a := range answers {
		var buf bytes.Buffer
		if err := s.markdown.Convert([]byte(a), &buf); err != nil {
			return nil, fmt.Errorf("convert markdown: %w", err)
		}
		out[i] = buf.String()
	}
	return out, nil
}
