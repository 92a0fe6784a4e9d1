package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"pdf-rag/internal/contextutil"
	"pdf-rag/internal/service"
)

// maxUploadMemory is the part of a multipart upload kept in memory; the rest spills to disk.
const maxUploadMemory = 32 << 20

// DocumentHandler handles HTTP requests for uploaded PDFs.
type DocumentHandler struct {
	documents service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documents service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// UploadResponse represents the HTTP response payload for an upload.
//
// swagger:model UploadResponse
type UploadResponse struct {
	// Names of the processed files, in request order
	Filenames []string `json:"filenames"`

	// Number of records stored across all files
	TotalChunksProcessed int `json:"total_chunks_processed"`

	Message string `json:"message"`
}

// DeleteFilesResponse represents the HTTP response payload for a batch delete.
//
// swagger:model DeleteFilesResponse
type DeleteFilesResponse struct {
	Message string             `json:"message"`
	Results []DeleteFileResult `json:"results"`
}

// DeleteFileResult is the outcome for one file of a batch delete.
//
// swagger:model DeleteFileResult
type DeleteFileResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
}

// ChatFilesResponse lists the files uploaded to a chat.
//
// swagger:model ChatFilesResponse
type ChatFilesResponse struct {
	ChatID string     `json:"chat_id"`
	Files  []FileInfo `json:"files"`
}

// FileInfo describes one uploaded file.
//
// swagger:model FileInfo
type FileInfo struct {
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
	UploadedAt string `json:"uploaded_at"`
}

// Upload handles POST /upload-pdfs with multipart fields chat_id and files.
//
// swagger:route POST /upload-pdfs uploadPDFs
//
// # Upload PDFs into a chat
//
// Extracts, splits and stores every file under the chat's namespace.
// When no file yields any text the body is only {"message": "chunks not found"}.
// A file uploaded again under the same name replaces its previous records.
//
// ---
// consumes:
// - multipart/form-data
// produces:
// - application/json
// parameters:
//   - in: formData
//     name: chat_id
//     type: string
//     required: true
//   - in: formData
//     name: files
//     type: file
//     required: true
//
// responses:
//
//	'200':
//	  description: Files processed
//	  schema:
//	    "$ref": "#/definitions/UploadResponse"
//	'400':
//	  description: Missing chat_id or files, unsafe filename, or unreadable PDF
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Vector store or embeddings service failed
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read file %s: %v", fh.Filename, err))
			return
		}
		files = append(files, service.UploadFile{Filename: fh.Filename, Content: f})
	}
	defer closeAll(files)

	result, err := h.documents.Upload(ctx, service.UploadRequest{
		ChatID: r.FormValue("chat_id"),
		Files:  files,
	})
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	if !result.ChunksFound() {
		writeJSON(ctx, w, http.StatusOK, MessageResponse{Message: result.Message})
		return
	}

	writeJSON(ctx, w, http.StatusOK, UploadResponse{
		Filenames:            result.Filenames,
		TotalChunksProcessed: result.TotalChunks,
		Message:              result.Message,
	})
}

// DeleteFile handles DELETE /delete-file?chat_id=&filename=.
//
// swagger:route DELETE /delete-file deleteFile
//
// # Delete one file from a chat
//
// ---
// produces:
// - application/json
// parameters:
//   - in: query
//     name: chat_id
//     type: string
//     required: true
//   - in: query
//     name: filename
//     type: string
//     required: true
//
// responses:
//
//	'200':
//	  description: File records deleted
//	  schema:
//	    "$ref": "#/definitions/MessageResponse"
//	'400':
//	  description: Missing chat_id or filename
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: File not registered in the chat
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Vector store failed
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *DocumentHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	chatID, filename := q.Get("chat_id"), q.Get("filename")

	if err := h.documents.DeleteFile(ctx, chatID, filename); err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Deleted file '%s' and associated vectors from chat '%s'", filename, chatID),
	})
}

// DeleteFiles handles DELETE /delete-files?chat_id=&filenames=a&filenames=b.
//
// swagger:route DELETE /delete-files deleteFiles
//
// # Delete several files from a chat
//
// Each file is deleted independently; failures are reported per file.
//
// ---
// produces:
// - application/json
// parameters:
//   - in: query
//     name: chat_id
//     type: string
//     required: true
//   - in: query
//     name: filenames
//     type: array
//     items:
//       type: string
//     collectionFormat: multi
//     required: true
//
// responses:
//
//	'200':
//	  description: Per-file results
//	  schema:
//	    "$ref": "#/definitions/DeleteFilesResponse"
//	'400':
//	  description: Missing chat_id or filenames
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *DocumentHandler) DeleteFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	chatID, filenames := q.Get("chat_id"), q["filenames"]

	results, err := h.documents.DeleteFiles(ctx, chatID, filenames)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	resp := DeleteFilesResponse{
		Message: fmt.Sprintf("Processed %d file(s) for chat '%s'", len(filenames), chatID),
		Results: make([]DeleteFileResult, len(results)),
	}
	for i, res := range results {
		resp.Results[i] = DeleteFileResult{Filename: res.Filename, Status: res.Status, Detail: res.Detail}
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// DeleteChat handles DELETE /delete-chat?chat_id=.
//
// swagger:route DELETE /delete-chat deleteChat
//
// # Delete everything stored for a chat
//
// Vector store failures are logged and do not fail the request.
//
// ---
// produces:
// - application/json
// parameters:
//   - in: query
//     name: chat_id
//     type: string
//     required: true
//
// responses:
//
//	'200':
//	  description: Chat deleted
//	  schema:
//	    "$ref": "#/definitions/MessageResponse"
//	'400':
//	  description: Missing chat_id
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *DocumentHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID := r.URL.Query().Get("chat_id")

	if err := h.documents.DeleteChat(ctx, chatID); err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("All vectors for chat_id '%s' deleted successfully.", chatID),
	})
}

// ListFiles handles GET /chat-files?chat_id=.
//
// swagger:route GET /chat-files listChatFiles
//
// # List the files uploaded to a chat
//
// ---
// produces:
// - application/json
// parameters:
//   - in: query
//     name: chat_id
//     type: string
//     required: true
//
// responses:
//
//	'200':
//	  description: Registered files ordered by name
//	  schema:
//	    "$ref": "#/definitions/ChatFilesResponse"
//	'400':
//	  description: Missing chat_id
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *DocumentHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID := r.URL.Query().Get("chat_id")

	docs, err := h.documents.ListFiles(ctx, chatID)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	resp := ChatFilesResponse{ChatID: chatID, Files: make([]FileInfo, len(docs))}
	for i, d := range docs {
		resp.Files[i] = FileInfo{
			Filename:   d.Filename,
			Chunks:     d.Chunks,
			UploadedAt: d.UploadedAt.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

func closeAll(files []service.UploadFile) {
	for _, f := range files {
		if c, ok := f.Content.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
