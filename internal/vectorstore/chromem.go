package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"pdf-rag/internal/contextutil"
)

// ChromemStore implements VectorStore on an embedded chromem-go database.
// Each namespace is its own collection, so deleting a chat drops the collection.
type ChromemStore struct {
	db       *chromem.DB
	embedder Embedder

	mu        sync.RWMutex
	dimension int
}

// NewChromemStore opens a chromem-go database. An empty path keeps everything
// in memory; otherwise documents are persisted below path.
func NewChromemStore(path string, embedder Embedder) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	db := chromem.NewDB()
	if path != "" {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database: %w", err)
		}
	}

	return &ChromemStore{
		db:       db,
		embedder: embedder,
	}, nil
}

// EnsureIndex records the expected dimension. Collections are created lazily.
func (s *ChromemStore) EnsureIndex(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("dimension must be greater than 0")
	}

	s.mu.Lock()
	s.dimension = dimension
	s.mu.Unlock()

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "chromem store ready", "vector_size", dimension)
	return nil
}

// Upsert embeds the records in one call and adds them to the namespace's collection.
func (s *ChromemStore) Upsert(ctx context.Context, namespace string, records []Record) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed records: %w", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(records))
	}
	if err := s.checkDimension(vectors); err != nil {
		return err
	}

	col, err := s.db.GetOrCreateCollection(namespace, nil, s.embedFunc())
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(records))
	for i, r := range records {
		metadata := map[string]string{FieldSource: r.Source}
		if r.Page != "" {
			metadata[FieldPage] = r.Page
		}
		docs = append(docs, chromem.Document{
			ID:        r.ID,
			Metadata:  metadata,
			Embedding: vectors[i],
			Content:   r.Text,
		})
	}

	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		logger.ErrorContext(ctx, "failed to add documents", "namespace", namespace, "count", len(records), "error", err)
		return fmt.Errorf("failed to add documents: %w", err)
	}

	logger.DebugContext(ctx, "upserted documents", "namespace", namespace, "count", len(records))
	return nil
}

// DeleteBySource removes the namespace's documents whose source matches exactly.
func (s *ChromemStore) DeleteBySource(ctx context.Context, namespace, source string) error {
	col := s.db.GetCollection(namespace, s.embedFunc())
	if col == nil {
		return nil
	}

	if err := col.Delete(ctx, map[string]string{FieldSource: source}, nil); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "deleted documents", "namespace", namespace, "source", source)
	return nil
}

// DeleteNamespace drops the namespace's collection. Unknown namespaces are a no-op.
func (s *ChromemStore) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := s.db.DeleteCollection(namespace); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "deleted collection", "namespace", namespace)
	return nil
}

// Search queries the namespace's collection. chromem rejects result counts above
// the collection size, so topK is capped at the document count.
func (s *ChromemStore) Search(ctx context.Context, namespace, query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	col := s.db.GetCollection(namespace, s.embedFunc())
	if col == nil {
		return []Hit{}, nil
	}

	n := min(topK, col.Count())
	if n == 0 {
		return []Hit{}, nil
	}

	results, err := col.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ID:     r.ID,
			Score:  r.Similarity,
			Text:   r.Content,
			Source: r.Metadata[FieldSource],
			Page:   r.Metadata[FieldPage],
		})
	}
	sortHits(hits)

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "search completed", "namespace", namespace, "top_k", topK, "results", len(hits))
	return hits, nil
}

// Ping always succeeds; the database lives in process.
func (s *ChromemStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op; persistent documents are written on every change.
func (s *ChromemStore) Close() error {
	return nil
}

// embedFunc adapts the Embedder to chromem's single-text embedding function.
func (s *ChromemStore) embedFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := s.embedder.EmbedTexts(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("embedding count mismatch: got %d, want 1", len(vectors))
		}
		if err := s.checkDimension(vectors); err != nil {
			return nil, err
		}
		return vectors[0], nil
	}
}

func (s *ChromemStore) checkDimension(vectors [][]float32) error {
	s.mu.RLock()
	dimension := s.dimension
	s.mu.RUnlock()

	if dimension == 0 {
		return nil
	}
	for _, v := range vectors {
		if len(v) != dimension {
			return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", dimension, len(v))
		}
	}
	return nil
}
