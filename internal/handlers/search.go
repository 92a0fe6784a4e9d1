package handlers

import (
	"net/http"

	"pdf-rag/internal/service"
)

// SearchHandler handles HTTP requests for chat search.
type SearchHandler struct {
	search service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(search service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// ServeHTTP handles GET /search-chat?query=&chat_id=[&format=html].
// The response is a JSON array of strings.
//
// swagger:route GET /search-chat searchChat
//
// # Answer a question from a chat's PDFs
//
// Expands the query into variants, retrieves matching chunks from the chat
// and returns them condensed into Markdown bullet points. A query with no
// relevant chunks returns ["No relevant information found"].
//
// ---
// produces:
// - application/json
// parameters:
//   - in: query
//     name: query
//     type: string
//     required: true
//   - in: query
//     name: chat_id
//     type: string
//     required: true
//   - in: query
//     name: format
//     type: string
//     enum: [markdown, html]
//     required: false
//
// responses:
//
//	'200':
//	  description: Answers
//	  schema:
//	    type: array
//	    items:
//	      type: string
//	'400':
//	  description: Missing query or chat_id, or unknown format
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: LLM, embeddings or vector store failed
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if !q.Has("query") {
		handleServiceError(ctx, w, &service.ValidationError{Field: "query", Message: "is required"})
		return
	}

	answers, err := h.search.Search(ctx, service.SearchRequest{
		ChatID: q.Get("chat_id"),
		Query:  q.Get("query"),
		Format: q.Get("format"),
	})
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, answers)
}
