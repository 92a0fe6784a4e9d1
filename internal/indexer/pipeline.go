package indexer

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"

	"pdf-rag/internal/contextutil"
	"pdf-rag/internal/vectorstore"
)

// DefaultBatchSize is the number of records sent per upsert call.
const DefaultBatchSize = 50

// Pipeline ingests a PDF into a chat's namespace: extract, split, upsert.
type Pipeline struct {
	extractor Extractor
	store     vectorstore.VectorStore
	batchSize int
	newID     func() string
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(extractor Extractor, store vectorstore.VectorStore) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		store:     store,
		batchSize: DefaultBatchSize,
		newID:     uuid.NewString,
	}
}

// AddFile extracts the PDF at path, splits its chunks with a policy derived
// from the file size and upserts the records into namespace chatID in batches.
// It returns the number of records stored. Zero records means nothing was sent.
func (p *Pipeline) AddFile(ctx context.Context, path, chatID string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	chunks, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return 0, err
	}

	policy := PolicyForSize(info.Size())
	records, err := p.BuildRecords(chunks, policy)
	if err != nil {
		return 0, err
	}

	logger.InfoContext(ctx, "prepared records",
		"chat_id", chatID,
		"path", path,
		"size_bytes", info.Size(),
		"chunk_size", policy.ChunkSize,
		"chunk_overlap", policy.ChunkOverlap,
		"chunks", len(chunks),
		"records", len(records),
	)

	for start := 0; start < len(records); start += p.batchSize {
		end := min(start+p.batchSize, len(records))
		if err := p.store.Upsert(ctx, chatID, records[start:end]); err != nil {
			return 0, fmt.Errorf("failed to upsert records %d-%d: %w", start, end, err)
		}
	}

	return len(records), nil
}

// BuildRecords splits every non-empty chunk and turns each piece into a record
// carrying the chunk's source and page.
func (p *Pipeline) BuildRecords(chunks []Chunk, policy SplitPolicy) ([]vectorstore.Record, error) {
	splitter := NewSplitter(policy)

	var records []vectorstore.Record
	for _, chunk := range chunks {
		if chunk.Empty() {
			continue
		}

		pieces, err := splitter.Split(chunk.Text())
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d of %s: %w", chunk.Page, chunk.Source, err)
		}

		page := ""
		if chunk.Page > 0 {
			page = strconv.Itoa(chunk.Page)
		}
		for _, piece := range pieces {
			records = append(records, vectorstore.Record{
				ID:     p.newID(),
				Text:   piece,
				Source: chunk.Source,
				Page:   page,
			})
		}
	}
	return records, nil
}
