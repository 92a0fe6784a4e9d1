package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"pdf-rag/internal/contextutil"
)

// qdrantAPI is the part of *qdrant.Client the store uses.
type qdrantAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	Close() error
}

// QdrantStore implements VectorStore on a single Qdrant collection.
// Namespaces are kept apart by a chat_id payload field that every
// search and delete filters on.
type QdrantStore struct {
	client     qdrantAPI
	collection string
	embedder   Embedder
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
// A non-empty apiKey enables TLS.
func NewQdrantStore(urlStr, apiKey, collection string, embedder Embedder) (*QdrantStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	cfg, err := qdrantConfig(urlStr, apiKey)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client:     client,
		collection: collection,
		embedder:   embedder,
	}, nil
}

// qdrantConfig maps the HTTP URL to the gRPC client configuration.
func qdrantConfig(urlStr, apiKey string) (*qdrant.Config, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid Qdrant port %q: %w", parsedURL.Port(), err)
		}
		port = httpPort + 1
	}

	return &qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: apiKey != "" || parsedURL.Scheme == "https",
	}, nil
}

// EnsureIndex ensures the collection exists with the specified vector size
// and that chat_id and source carry keyword payload indexes.
// If the collection exists, validates that the vector size matches.
func (s *QdrantStore) EnsureIndex(ctx context.Context, dimension int) error {
	logger := contextutil.LoggerFromContext(ctx)

	if dimension <= 0 {
		return fmt.Errorf("dimension must be greater than 0")
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if exists {
		if err := s.validateDimension(ctx, dimension); err != nil {
			return err
		}
		return s.ensurePayloadIndexes(ctx)
	}

	logger.InfoContext(ctx, "creating collection", "collection", s.collection, "vector_size", dimension)
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := s.ensurePayloadIndexes(ctx); err != nil {
		return err
	}

	logger.InfoContext(ctx, "collection created", "collection", s.collection, "vector_size", dimension)
	return nil
}

// ensurePayloadIndexes creates the keyword indexes on chat_id and source.
// Qdrant treats creating an existing index as a no-op.
func (s *QdrantStore) ensurePayloadIndexes(ctx context.Context) error {
	wait := true
	for _, field := range []string{FieldChatID, FieldSource} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			Wait:           &wait,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create %s index: %w", field, err)
		}
	}
	return nil
}

func (s *QdrantStore) validateDimension(ctx context.Context, dimension int) error {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	config := info.GetConfig()
	if config == nil || config.GetParams() == nil {
		return fmt.Errorf("collection config is invalid")
	}

	params := config.GetParams().GetVectorsConfig().GetParams()
	if params == nil || params.GetSize() == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}

	if int(params.GetSize()) != dimension {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", dimension, params.GetSize())
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "collection validated", "collection", s.collection, "vector_size", dimension)
	return nil
}

// Upsert embeds the records and inserts or updates them in the namespace.
func (s *QdrantStore) Upsert(ctx context.Context, namespace string, records []Record) error {
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

	points := make([]*qdrant.PointStruct, 0, len(records))
	for i, r := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(r.ID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(recordPayload(namespace, r)),
		})
	}

	wait := true
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", s.collection, "namespace", namespace, "count", len(records), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", s.collection, "namespace", namespace, "count", len(records))
	return nil
}

// DeleteBySource removes the namespace's points whose source matches exactly.
func (s *QdrantStore) DeleteBySource(ctx context.Context, namespace, source string) error {
	return s.deleteByFilter(ctx, namespaceFilter(namespace, qdrant.NewMatch(FieldSource, source)))
}

// DeleteNamespace removes every point of the namespace.
func (s *QdrantStore) DeleteNamespace(ctx context.Context, namespace string) error {
	return s.deleteByFilter(ctx, namespaceFilter(namespace))
}

func (s *QdrantStore) deleteByFilter(ctx context.Context, filter *qdrant.Filter) error {
	logger := contextutil.LoggerFromContext(ctx)

	wait := true
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", s.collection, "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.DebugContext(ctx, "deleted points", "collection", s.collection)
	return nil
}

// Search embeds the query and performs a similarity search inside the namespace.
func (s *QdrantStore) Search(ctx context.Context, namespace, query string, topK int) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	vectors, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want 1", len(vectors))
	}

	limit := uint64(topK)
	scoredPoints, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vectors[0]...),
		Filter:         namespaceFilter(namespace),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", s.collection, "namespace", namespace, "top_k", topK, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	hits := make([]Hit, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		hits = append(hits, hitFromPayload(point.GetId().GetUuid(), point.GetScore(), point.GetPayload()))
	}
	sortHits(hits)

	logger.DebugContext(ctx, "search completed", "collection", s.collection, "namespace", namespace, "top_k", topK, "results", len(hits))
	return hits, nil
}

// Ping checks that the Qdrant server answers.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying gRPC connections.
func (s *QdrantStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func recordPayload(namespace string, r Record) map[string]any {
	payload := map[string]any{
		FieldChatID: namespace,
		FieldText:   r.Text,
		FieldSource: r.Source,
	}
	if r.Page != "" {
		payload[FieldPage] = r.Page
	}
	return payload
}

// namespaceFilter always constrains on chat_id, plus any extra conditions.
func namespaceFilter(namespace string, extra ...*qdrant.Condition) *qdrant.Filter {
	must := make([]*qdrant.Condition, 0, len(extra)+1)
	must = append(must, qdrant.NewMatch(FieldChatID, namespace))
	must = append(must, extra...)
	return &qdrant.Filter{Must: must}
}

func hitFromPayload(id string, score float32, payload map[string]*qdrant.Value) Hit {
	return Hit{
		ID:     id,
		Score:  score,
		Text:   payload[FieldText].GetStringValue(),
		Source: payload[FieldSource].GetStringValue(),
		Page:   payload[FieldPage].GetStringValue(),
	}
}

func sortHits(hits []Hit) {
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
}
