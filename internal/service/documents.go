package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingester.go -package=mocks pdf-rag/internal/service Ingester
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_service.go -package=mocks pdf-rag/internal/service DocumentService

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pdf-rag/internal/contextutil"
	"pdf-rag/internal/indexer"
	"pdf-rag/internal/staging"
	"pdf-rag/internal/storage"
	"pdf-rag/internal/vectorstore"
)

// ChunksNotFound is the upload message when no file produced any record.
const ChunksNotFound = "chunks not found"

// Ingester turns a staged file into records in a chat's namespace.
// This interface is defined from the service layer's perspective (consumer-first).
type Ingester interface {
	// AddFile ingests the file at path and returns the number of records stored.
	AddFile(ctx context.Context, path, chatID string) (int, error)
}

// UploadFile is one uploaded file.
type UploadFile struct {
	Filename string
	Content  io.Reader
}

// UploadRequest represents an upload in the domain layer.
type UploadRequest struct {
	ChatID string
	Files  []UploadFile
}

// UploadResult is the outcome of an upload.
type UploadResult struct {
	Filenames   []string
	TotalChunks int
	Message     string
}

// ChunksFound reports whether any record was stored.
func (r UploadResult) ChunksFound() bool {
	return r.TotalChunks > 0
}

// Delete statuses reported per file by DeleteFiles.
const (
	StatusDeleted = "deleted"
	StatusError   = "error"
)

// DeleteResult is the per-file outcome of a batch delete.
type DeleteResult struct {
	Filename string
	Status   string
	Detail   string
}

// DocumentService manages the PDFs uploaded to chats.
type DocumentService interface {
	// Upload stages, ingests and registers every file of the request.
	Upload(ctx context.Context, req UploadRequest) (UploadResult, error)
	// DeleteFile removes a file's records from the chat.
	DeleteFile(ctx context.Context, chatID, filename string) error
	// DeleteFiles removes several files, reporting each outcome separately.
	DeleteFiles(ctx context.Context, chatID string, filenames []string) ([]DeleteResult, error)
	// DeleteChat removes everything stored for a chat. Vector store failures are logged only.
	DeleteChat(ctx context.Context, chatID string) error
	// ListFiles returns the files registered for a chat.
	ListFiles(ctx context.Context, chatID string) ([]storage.Document, error)
}

// documentService implements DocumentService.
type documentService struct {
	ingester Ingester
	store    vectorstore.VectorStore
	docs     storage.DocumentStore
	staging  *staging.Manager
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(ingester Ingester, store vectorstore.VectorStore, docs storage.DocumentStore, stagingMgr *staging.Manager) DocumentService {
	return &documentService{
		ingester: ingester,
		store:    store,
		docs:     docs,
		staging:  stagingMgr,
	}
}

// Upload processes files in order. The first failure aborts the request;
// files ingested before it stay stored. Staged files are always removed.
func (s *documentService) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateChatID(req.ChatID); err != nil {
		logger.WarnContext(ctx, "invalid upload request", "error", err)
		return UploadResult{}, err
	}
	if len(req.Files) == 0 {
		return UploadResult{}, &ValidationError{Field: "files", Message: "at least one file is required"}
	}
	for _, f := range req.Files {
		if err := staging.SafeName(f.Filename); err != nil {
			return UploadResult{}, &ValidationError{Field: "files", Message: err.Error()}
		}
	}

	result := UploadResult{Filenames: make([]string, 0, len(req.Files))}
	for _, f := range req.Files {
		n, err := s.uploadOne(ctx, req.ChatID, f)
		if err != nil {
			logger.ErrorContext(ctx, "upload failed", "chat_id", req.ChatID, "filename", f.Filename, "error", err)
			return UploadResult{}, err
		}
		result.Filenames = append(result.Filenames, f.Filename)
		result.TotalChunks += n
	}

	if !result.ChunksFound() {
		result.Message = ChunksNotFound
	} else {
		result.Message = "Files uploaded"
	}

	logger.InfoContext(ctx, "upload processed", "chat_id", req.ChatID, "files", len(result.Filenames), "chunks", result.TotalChunks)
	return result, nil
}

func (s *documentService) uploadOne(ctx context.Context, chatID string, f UploadFile) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	path, err := s.staging.Save(chatID, f.Filename, f.Content)
	if err != nil {
		return 0, WrapError(err, "failed to stage upload")
	}
	defer func() {
		if err := s.staging.Remove(path); err != nil {
			logger.WarnContext(ctx, "failed to remove staged file", "path", path, "error", err)
		}
	}()

	// A re-uploaded file replaces its previous records.
	registered := false
	if _, err := s.docs.Get(ctx, chatID, f.Filename); err == nil {
		registered = true
		if err := s.store.DeleteBySource(ctx, chatID, f.Filename); err != nil {
			return 0, upstream("vector store", err)
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, WrapError(err, "failed to look up document")
	}

	n, err := s.ingester.AddFile(ctx, path, chatID)
	if errors.Is(err, indexer.ErrInvalidPDF) {
		return 0, &ValidationError{Field: "files", Message: err.Error()}
	}
	if err != nil {
		return 0, upstream("vector store", err)
	}
	if n == 0 {
		logger.WarnContext(ctx, "no chunks extracted", "chat_id", chatID, "filename", f.Filename)
		// The previous version's records are gone, so it is no longer listed.
		if registered {
			if err := s.docs.Delete(ctx, chatID, f.Filename); err != nil {
				return 0, WrapError(err, "failed to unregister document")
			}
		}
		return 0, nil
	}

	if err := s.docs.Upsert(ctx, &storage.Document{ChatID: chatID, Filename: f.Filename, Chunks: n}); err != nil {
		return 0, WrapError(err, "failed to register document")
	}
	return n, nil
}

// DeleteFile removes the file's records. The vector delete runs even for
// unregistered filenames; those then report ErrNotFound.
func (s *documentService) DeleteFile(ctx context.Context, chatID, filename string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateChatID(chatID); err != nil {
		return err
	}
	if strings.TrimSpace(filename) == "" {
		return &ValidationError{Field: "filename", Message: "is required"}
	}

	if err := s.store.DeleteBySource(ctx, chatID, filename); err != nil {
		logger.ErrorContext(ctx, "failed to delete file vectors", "chat_id", chatID, "filename", filename, "error", err)
		return upstream("vector store", err)
	}
	if err := s.docs.Delete(ctx, chatID, filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("file %s in chat %s: %w", filename, chatID, ErrNotFound)
		}
		return WrapError(err, "failed to unregister document")
	}

	logger.InfoContext(ctx, "file deleted", "chat_id", chatID, "filename", filename)
	return nil
}

// DeleteFiles deletes each filename independently.
func (s *documentService) DeleteFiles(ctx context.Context, chatID string, filenames []string) ([]DeleteResult, error) {
	if err := validateChatID(chatID); err != nil {
		return nil, err
	}
	if len(filenames) == 0 {
		return nil, &ValidationError{Field: "filenames", Message: "at least one filename is required"}
	}

	results := make([]DeleteResult, 0, len(filenames))
	for _, filename := range filenames {
		if err := s.DeleteFile(ctx, chatID, filename); err != nil {
			results = append(results, DeleteResult{Filename: filename, Status: StatusError, Detail: err.Error()})
			continue
		}
		results = append(results, DeleteResult{Filename: filename, Status: StatusDeleted})
	}
	return results, nil
}

// DeleteChat drops the chat's namespace, registry rows and staging directory.
func (s *documentService) DeleteChat(ctx context.Context, chatID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateChatID(chatID); err != nil {
		return err
	}

	if err := s.store.DeleteNamespace(ctx, chatID); err != nil {
		logger.ErrorContext(ctx, "failed to delete chat namespace", "chat_id", chatID, "error", err)
	}
	if err := s.docs.DeleteByChat(ctx, chatID); err != nil {
		return WrapError(err, "failed to unregister chat documents")
	}
	if err := s.staging.RemoveChat(chatID); err != nil {
		logger.WarnContext(ctx, "failed to remove staging directory", "chat_id", chatID, "error", err)
	}

	logger.InfoContext(ctx, "chat deleted", "chat_id", chatID)
	return nil
}

// ListFiles returns the chat's registered files ordered by filename.
func (s *documentService) ListFiles(ctx context.Context, chatID string) ([]storage.Document, error) {
	if err := validateChatID(chatID); err != nil {
		return nil, err
	}

	docs, err := s.docs.ListByChat(ctx, chatID)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}
	return docs, nil
}

func validateChatID(chatID string) error {
	if strings.TrimSpace(chatID) == "" {
		return &ValidationError{Field: "chat_id", Message: "is required"}
	}
	if err := staging.SafeName(chatID); err != nil {
		return &ValidationError{Field: "chat_id", Message: err.Error()}
	}
	return nil
}
