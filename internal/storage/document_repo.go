package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks pdf-rag/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DocumentStore defines the interface for the per-chat document registry.
type DocumentStore interface {
	// Upsert records a document, replacing any previous row for the same chat and filename.
	Upsert(ctx context.Context, doc *Document) error
	// Get returns a single document. Returns ErrNotFound if it is not registered.
	Get(ctx context.Context, chatID, filename string) (*Document, error)
	// ListByChat returns the documents of a chat ordered by filename.
	ListByChat(ctx context.Context, chatID string) ([]Document, error)
	// Delete removes one document. Returns ErrNotFound if it is not registered.
	Delete(ctx context.Context, chatID, filename string) error
	// DeleteByChat removes every document of a chat.
	DeleteByChat(ctx context.Context, chatID string) error
}

// DocumentRepo implements DocumentStore on SQLite.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert records a document. A zero UploadedAt is set to the current time.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *Document) error {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (chat_id, filename, chunks, uploaded_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(chat_id, filename) DO UPDATE SET chunks = excluded.chunks, uploaded_at = excluded.uploaded_at`,
		doc.ChatID, doc.Filename, doc.Chunks, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Get returns a single document. Returns ErrNotFound if it is not registered.
func (r *DocumentRepo) Get(ctx context.Context, chatID, filename string) (*Document, error) {
	var doc Document
	err := r.db.QueryRowContext(ctx,
		"SELECT chat_id, filename, chunks, uploaded_at FROM documents WHERE chat_id = ? AND filename = ?",
		chatID, filename,
	).Scan(&doc.ChatID, &doc.Filename, &doc.Chunks, &doc.UploadedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return &doc, nil
}

// ListByChat returns the documents of a chat ordered by filename.
// Returns an empty slice if the chat has no documents.
func (r *DocumentRepo) ListByChat(ctx context.Context, chatID string) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT chat_id, filename, chunks, uploaded_at FROM documents WHERE chat_id = ? ORDER BY filename",
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ChatID, &doc.Filename, &doc.Chunks, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// Delete removes one document. Returns ErrNotFound if it is not registered.
func (r *DocumentRepo) Delete(ctx context.Context, chatID, filename string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE chat_id = ? AND filename = ?", chatID, filename)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByChat removes every document of a chat.
func (r *DocumentRepo) DeleteByChat(ctx context.Context, chatID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE chat_id = ?", chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat documents: %w", err)
	}
	return nil
}
