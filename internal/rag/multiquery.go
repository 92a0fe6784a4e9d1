package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"pdf-rag/internal/contextutil"
)

// DefaultQueryCount is the number of alternative phrasings requested from the LLM.
const DefaultQueryCount = 3

const multiQueryPrompt = `You are an AI language model assistant. Your task is to generate %d different versions of the given user question to retrieve relevant documents from a vector database. By generating multiple perspectives on the user question, your goal is to help the user overcome some of the limitations of distance-based similarity search. Provide these alternative questions separated by newlines, with no numbering and no other text.
Original question: %s`

// MultiQueryRetriever expands a question into LLM-generated variants, runs the
// underlying retriever for each one and returns the union of the results.
type MultiQueryRetriever struct {
	retriever       DocumentRetriever
	llm             LLMClient
	queryCount      int
	includeOriginal bool
}

// MultiQueryOption configures a MultiQueryRetriever.
type MultiQueryOption func(*MultiQueryRetriever)

// WithQueryCount sets how many variants the LLM is asked for.
func WithQueryCount(n int) MultiQueryOption {
	return func(m *MultiQueryRetriever) {
		if n > 0 {
			m.queryCount = n
		}
	}
}

// WithIncludeOriginal also retrieves with the original question.
func WithIncludeOriginal(include bool) MultiQueryOption {
	return func(m *MultiQueryRetriever) {
		m.includeOriginal = include
	}
}

// NewMultiQueryRetriever wraps retriever with query expansion through llm.
func NewMultiQueryRetriever(retriever DocumentRetriever, llm LLMClient, opts ...MultiQueryOption) *MultiQueryRetriever {
	m := &MultiQueryRetriever{
		retriever:  retriever,
		llm:        llm,
		queryCount: DefaultQueryCount,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Retrieve runs every query variant sequentially and unions the documents,
// deduplicated by text in first-seen order. A blank question returns nothing.
func (m *MultiQueryRetriever) Retrieve(ctx context.Context, question string) ([]Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(question) == "" {
		return []Document{}, nil
	}

	queries, err := m.GenerateQueries(ctx, question)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	docs := make([]Document, 0)
	for _, q := range queries {
		found, err := m.retriever.Retrieve(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, d := range found {
			if _, dup := seen[d.Text]; dup {
				continue
			}
			seen[d.Text] = struct{}{}
			docs = append(docs, d)
		}
	}

	logger.InfoContext(ctx, "multi-query retrieval completed", "queries", len(queries), "documents", len(docs))
	return docs, nil
}

// GenerateQueries asks the LLM for alternative phrasings of question. When
// the reply holds no usable line the original question is used instead.
func (m *MultiQueryRetriever) GenerateQueries(ctx context.Context, question string) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	reply, err := m.llm.Chat(ctx, fmt.Sprintf(multiQueryPrompt, m.queryCount, question))
	if err != nil {
		return nil, fmt.Errorf("failed to generate query variants: %w", err)
	}

	queries := parseQueries(reply, m.queryCount)
	if m.includeOriginal {
		queries = prependUnique(question, queries)
	}
	if len(queries) == 0 {
		queries = []string{question}
	}

	logger.DebugContext(ctx, "generated query variants", "question", question, "queries", queries)
	return queries, nil
}

// parseQueries keeps up to limit non-empty lines of reply, stripped of list
// markers. Lines ending in a colon are treated as preamble.
func parseQueries(reply string, limit int) []string {
	var queries []string
	for _, line := range strings.Split(reply, "\n") {
		line = stripListMarker(strings.TrimSpace(line))
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		queries = append(queries, line)
		if limit > 0 && len(queries) == limit {
			break
		}
	}
	return queries
}

// stripListMarker removes a leading "-", "*", "•" or "1." / "1)" marker.
func stripListMarker(line string) string {
	trimmed := strings.TrimLeft(line, "-*•")
	if trimmed != line {
		return strings.TrimSpace(trimmed)
	}

	digits := strings.TrimLeftFunc(line, unicode.IsDigit)
	if len(digits) < len(line) && (strings.HasPrefix(digits, ".") || strings.HasPrefix(digits, ")")) {
		return strings.TrimSpace(digits[1:])
	}
	return line
}

func prependUnique(first string, rest []string) []string {
	out := []string{first}
	for _, q := range rest {
		if q != first {
			out = append(out, q)
		}
	}
	return out
}
