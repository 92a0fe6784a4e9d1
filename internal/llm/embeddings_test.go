package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

func writeEmbeddings(w http.ResponseWriter, items ...embeddingItem) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   items,
		"model":  "all-MiniLM-L6-v2",
	})
}

func vector(size int, first float32) []float32 {
	v := make([]float32, size)
	if size > 0 {
		v[0] = first
	}
	return v
}

func TestNewEmbeddingsClient(t *testing.T) {
	client := NewEmbeddingsClient("http://localhost:8081/v1", "test-key", "test-model", 384)
	if client == nil {
		t.Fatal("NewEmbeddingsClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8081/v1" {
		t.Errorf("NewEmbeddingsClient() BaseURL = %v, want http://localhost:8081/v1", client.BaseURL)
	}
	if client.ExpectedSize != 384 {
		t.Errorf("NewEmbeddingsClient() ExpectedSize = %v, want 384", client.ExpectedSize)
	}
	if client.client == nil {
		t.Error("NewEmbeddingsClient() client should not be nil")
	}
}

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name         string
		texts        []string
		expectedSize int
		serverResp   func(w http.ResponseWriter, r *http.Request)
		wantErr      bool
		wantFirst    []float32
	}{
		{
			name:         "successful embedding",
			texts:        []string{"Hello", "World"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q, want Bearer test-key", got)
				}

				var req struct {
					Input []string `json:"input"`
					Model string   `json:"model"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if req.Model != "test-model" || len(req.Input) != 2 {
					t.Errorf("request = %+v, want model test-model with 2 inputs", req)
				}

				writeEmbeddings(w,
					embeddingItem{Object: "embedding", Embedding: vector(4, 1), Index: 0},
					embeddingItem{Object: "embedding", Embedding: vector(4, 2), Index: 1},
				)
			},
			wantFirst: []float32{1, 2},
		},
		{
			name:         "out of order indexes are reordered",
			texts:        []string{"Hello", "World"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				writeEmbeddings(w,
					embeddingItem{Object: "embedding", Embedding: vector(4, 2), Index: 1},
					embeddingItem{Object: "embedding", Embedding: vector(4, 1), Index: 0},
				)
			},
			wantFirst: []float32{1, 2},
		},
		{
			name:         "empty input",
			texts:        []string{},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				t.Error("server should not be called for empty input")
			},
			wantErr: true,
		},
		{
			name:         "wrong embedding count",
			texts:        []string{"Hello", "World"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				writeEmbeddings(w, embeddingItem{Object: "embedding", Embedding: vector(4, 1), Index: 0})
			},
			wantErr: true,
		},
		{
			name:         "wrong embedding size",
			texts:        []string{"Hello"},
			expectedSize: 384,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				writeEmbeddings(w, embeddingItem{Object: "embedding", Embedding: vector(4, 1), Index: 0})
			},
			wantErr: true,
		},
		{
			name:         "server error",
			texts:        []string{"Hello"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"model not loaded","type":"server_error"}}`))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL+"/v1", "test-key", "test-model", tt.expectedSize)
			got, err := client.EmbedTexts(context.Background(), tt.texts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EmbedTexts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.texts) {
				t.Fatalf("EmbedTexts() returned %d vectors, want %d", len(got), len(tt.texts))
			}
			for i, want := range tt.wantFirst {
				if got[i][0] != want {
					t.Errorf("vector %d first component = %v, want %v", i, got[i][0], want)
				}
			}
		})
	}
}
