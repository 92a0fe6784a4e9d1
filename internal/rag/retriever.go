package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_retriever.go -package=mocks pdf-rag/internal/rag DocumentRetriever

import (
	"context"
	"fmt"
	"strings"

	"pdf-rag/internal/contextutil"
	"pdf-rag/internal/vectorstore"
)

const (
	// DefaultTopK is the number of hits requested from the vector store per query.
	DefaultTopK = 10
	// DefaultScoreThreshold is the exclusive lower bound a hit's score must beat.
	DefaultScoreThreshold = 0.1
)

// Document is a retrieved text chunk.
type Document struct {
	Text   string
	Source string
	Page   string
	Score  float32
}

// DocumentRetriever returns the documents relevant to a query.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}

// Retriever searches one namespace and keeps hits scoring above the threshold.
type Retriever struct {
	store     vectorstore.VectorStore
	namespace string
	topK      int
	threshold float32
}

// NewRetriever creates a retriever bound to namespace with the default
// top-k of 10 and score threshold of 0.1.
func NewRetriever(store vectorstore.VectorStore, namespace string) *Retriever {
	return &Retriever{
		store:     store,
		namespace: namespace,
		topK:      DefaultTopK,
		threshold: DefaultScoreThreshold,
	}
}

// Retrieve returns hits with score strictly greater than the threshold, in
// store order. A blank query returns nothing without touching the store.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(query) == "" {
		return []Document{}, nil
	}

	hits, err := r.store.Search(ctx, r.namespace, query, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search namespace %s: %w", r.namespace, err)
	}

	docs := make([]Document, 0, len(hits))
	for _, hit := range hits {
		if hit.Score <= r.threshold {
			continue
		}
		docs = append(docs, Document{
			Text:   hit.Text,
			Source: hit.Source,
			Page:   hit.Page,
			Score:  hit.Score,
		})
	}

	logger.DebugContext(ctx, "retrieved documents",
		"namespace", r.namespace,
		"hits", len(hits),
		"kept", len(docs),
		"threshold", r.threshold,
	)
	return docs, nil
}
