package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pdf-rag/internal/handlers"
	"pdf-rag/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DocumentService service.DocumentService
	SearchService   service.SearchService
	VectorStore     handlers.Pinger
	DB              handlers.DBPinger // optional
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	documentHandler := handlers.NewDocumentHandler(deps.DocumentService)
	searchHandler := handlers.NewSearchHandler(deps.SearchService)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.DB)

	r.Post("/upload-pdfs", documentHandler.Upload)
	r.Delete("/delete-file", documentHandler.DeleteFile)
	r.Delete("/delete-files", documentHandler.DeleteFiles)
	r.Delete("/delete-chat", documentHandler.DeleteChat)
	r.Get("/chat-files", documentHandler.ListFiles)
	r.Method(http.MethodGet, "/search-chat", searchHandler)
	r.Method(http.MethodGet, "/health", healthHandler)

	return r
}
