package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks pdf-rag/internal/vectorstore VectorStore

import (
	"context"
	"errors"
)

// Payload keys stored with every record.
const (
	FieldChatID = "chat_id"
	FieldText   = "text"
	FieldSource = "source"
	FieldPage   = "page"
)

// DefaultDimension matches all-MiniLM-L6-v2.
const DefaultDimension = 384

// ErrInvalidTopK is returned by Search when topK is not positive.
var ErrInvalidTopK = errors.New("topK must be greater than 0")

// Record is one text chunk to be embedded and stored.
type Record struct {
	ID     string
	Text   string
	Source string
	// Page is the decimal page number, empty when unknown.
	Page string
}

// Hit is a single search result.
type Hit struct {
	ID     string
	Score  float32
	Text   string
	Source string
	Page   string
}

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore stores records per namespace and answers text similarity queries.
// The namespace is the chat id; operations never cross namespaces.
type VectorStore interface {
	// EnsureIndex creates the index if it is absent and validates it otherwise.
	EnsureIndex(ctx context.Context, dimension int) error

	// Upsert inserts or updates records in the namespace. An empty slice is a no-op.
	Upsert(ctx context.Context, namespace string, records []Record) error

	// DeleteBySource removes every record in the namespace whose source equals source.
	DeleteBySource(ctx context.Context, namespace, source string) error

	// DeleteNamespace removes every record in the namespace.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Search embeds query and returns up to topK hits sorted by score descending.
	Search(ctx context.Context, namespace, query string, topK int) ([]Hit, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}
