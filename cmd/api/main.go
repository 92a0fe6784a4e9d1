package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-rag/internal/config"
	"pdf-rag/internal/http"
	"pdf-rag/internal/indexer"
	"pdf-rag/internal/llm"
	"pdf-rag/internal/rag"
	"pdf-rag/internal/service"
	"pdf-rag/internal/staging"
	"pdf-rag/internal/storage"
	"pdf-rag/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API ingests PDFs per chat and answers questions from them with
// retrieval-augmented generation.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: PDF RAG API
//   description: |
//     Upload PDFs into a chat, search them, and delete files or whole chats.
//     Answers are Markdown bullet points condensed by an LLM from retrieved chunks.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// produces:
//   - application/json

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.VectorDimension)
	if _, err := embedder.EmbedTexts(ctx, []string{"test"}); err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModel, "vector_size", cfg.VectorDimension)

	vectorStore, err := newVectorStore(cfg, embedder)
	if err != nil {
		return err
	}
	defer func() {
		_ = vectorStore.Close()
	}()

	if err := vectorStore.EnsureIndex(ctx, cfg.VectorDimension); err != nil {
		return fmt.Errorf("failed to ensure vector index: %w", err)
	}
	slog.Info("Vector index ready",
		"backend", cfg.VectorBackend,
		"index", cfg.IndexName,
		"environment", cfg.VectorEnvironment,
		"dimension", cfg.VectorDimension,
	)

	// Create LLM client (external service layer)
	llmClient, err := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	if err != nil {
		return err
	}
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)

	stagingMgr, err := staging.NewManager(cfg.UploadDir)
	if err != nil {
		return err
	}
	if n, err := stagingMgr.Sweep(ctx); err != nil {
		slog.Warn("Failed to sweep staging directory", "dir", stagingMgr.Root(), "error", err)
	} else if n > 0 {
		slog.Info("Removed leftover staged uploads", "dir", stagingMgr.Root(), "count", n)
	}
	slog.Info("Upload staging ready", "dir", stagingMgr.Root())

	pipeline := indexer.NewPipeline(indexer.NewPDFExtractor(), vectorStore)
	ragEngine := rag.NewEngine(vectorStore, llmClient)
	slog.Info("RAG engine initialized")

	router := http.NewRouter(&http.Deps{
		DocumentService: service.NewDocumentService(pipeline, vectorStore, storage.NewDocumentRepo(db), stagingMgr),
		SearchService:   service.NewSearchService(ragEngine),
		VectorStore:     vectorStore,
		DB:              db,
	})

	srv := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}

// newVectorStore builds the backend selected by VECTOR_BACKEND.
func newVectorStore(cfg *config.Config, embedder vectorstore.Embedder) (vectorstore.VectorStore, error) {
	if cfg.VectorBackend == config.BackendChromem {
		store, err := vectorstore.NewChromemStore(cfg.ChromemPath, embedder)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.IndexName, embedder)
	if err != nil {
		return nil, err
	}
	return store, nil
}
