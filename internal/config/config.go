package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported vector store backends.
const (
	BackendQdrant  = "qdrant"
	BackendChromem = "chromem"
)

// Config holds all configuration for the application.
type Config struct {
	VectorBackend     string
	QdrantURL         string
	QdrantAPIKey      string
	IndexName         string
	VectorEnvironment string
	VectorDimension   int
	ChromemPath       string

	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string

	LLMBaseURL   string
	LLMAPIKey    string
	LLMModelName string

	DBPath    string
	UploadDir string
	APIPort   string

	LogLevel  slog.Level
	LogFormat string
}

// fileConfig is the optional YAML file named by CONFIG_FILE.
// Values from the file act as defaults; environment variables take precedence.
type fileConfig struct {
	VectorStore struct {
		Backend     string `yaml:"backend"`
		QdrantURL   string `yaml:"qdrant_url"`
		APIKey      string `yaml:"api_key"`
		IndexName   string `yaml:"index_name"`
		Environment string `yaml:"environment"`
		Dimension   int    `yaml:"dimension"`
		ChromemPath string `yaml:"chromem_path"`
	} `yaml:"vector_store"`
	Embedding struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"embedding"`
	LLM struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"llm"`
	DBPath    string `yaml:"db_path"`
	UploadDir string `yaml:"upload_dir"`
	APIPort   string `yaml:"api_port"`
	Log       struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent directory, it is loaded first.
// If CONFIG_FILE names a YAML file, its values become the defaults.
// Environment variables already set take precedence over both.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	var fc fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &fc); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		VectorBackend:     strings.ToLower(getEnv("VECTOR_BACKEND", or(fc.VectorStore.Backend, BackendQdrant))),
		QdrantURL:         getEnv("QDRANT_URL", or(fc.VectorStore.QdrantURL, "http://localhost:6333")),
		QdrantAPIKey:      getEnv("QDRANT_API_KEY", fc.VectorStore.APIKey),
		IndexName:         getEnv("VECTOR_INDEX_NAME", fc.VectorStore.IndexName),
		VectorEnvironment: getEnv("VECTOR_ENVIRONMENT", or(fc.VectorStore.Environment, "us-west1-gcp")),
		ChromemPath:       getEnv("CHROMEM_PATH", fc.VectorStore.ChromemPath),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", or(fc.Embedding.BaseURL, "http://localhost:8081/v1")),
		EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", or(fc.Embedding.APIKey, "dummy-key")),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", or(fc.Embedding.Model, "all-MiniLM-L6-v2")),
		LLMBaseURL:        getEnv("LLM_BASE_URL", or(fc.LLM.BaseURL, "https://api.groq.com/openai/v1")),
		LLMAPIKey:         getEnv("LLM_API_KEY", fc.LLM.APIKey),
		LLMModelName:      getEnv("LLM_MODEL", or(fc.LLM.Model, "llama-3.3-70b-versatile")),
		DBPath:            getEnv("DB_PATH", or(fc.DBPath, "./data/pdf-rag.db")),
		UploadDir:         getEnv("UPLOAD_DIR", or(fc.UploadDir, "uploaded_pdfs")),
		APIPort:           getEnv("API_PORT", or(fc.APIPort, "8000")),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", or(fc.Log.Format, "text"))),
	}

	// The dimension must match the output size of the embeddings model.
	// all-MiniLM-L6-v2 produces 384-dimensional vectors.
	defaultDim := "384"
	if fc.VectorStore.Dimension > 0 {
		defaultDim = strconv.Itoa(fc.VectorStore.Dimension)
	}
	dim, err := strconv.Atoi(getEnv("VECTOR_DIMENSION", defaultDim))
	if err != nil {
		return nil, fmt.Errorf("VECTOR_DIMENSION must be a valid integer: %w", err)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("VECTOR_DIMENSION must be greater than 0")
	}
	cfg.VectorDimension = dim

	level, err := parseLogLevel(getEnv("LOG_LEVEL", or(fc.Log.Level, "info")))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	switch cfg.VectorBackend {
	case BackendQdrant, BackendChromem:
	default:
		return nil, fmt.Errorf("VECTOR_BACKEND must be %s or %s, got %q", BackendQdrant, BackendChromem, cfg.VectorBackend)
	}

	if cfg.IndexName == "" {
		return nil, fmt.Errorf("VECTOR_INDEX_NAME is required")
	}
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// loadFile decodes the YAML config file at path into fc.
func loadFile(path string, fc *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("CONFIG_FILE %s does not exist", path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// parseLogLevel maps a level name to a slog.Level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
