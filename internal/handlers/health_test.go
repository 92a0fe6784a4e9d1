package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"

	"pdf-rag/internal/vectorstore/mocks"
)

type fakeDB struct {
	err error
}

func (f fakeDB) PingContext(context.Context) error {
	return f.err
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		storeErr   error
		db         DBPinger
		wantStatus int
		wantChecks map[string]string
		wantIssues []string
	}{
		{
			name:       "healthy",
			db:         fakeDB{},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"vector_store": "ok", "database": "ok"},
		},
		{
			name:       "vector store down",
			storeErr:   errors.New("connection refused"),
			db:         fakeDB{},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"vector_store": "error", "database": "ok"},
			wantIssues: []string{"vector_store_unavailable"},
		},
		{
			name:       "database down",
			db:         fakeDB{err: errors.New("database is locked")},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"vector_store": "ok", "database": "error"},
			wantIssues: []string{"database_unavailable"},
		},
		{
			name:       "no database configured",
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"vector_store": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockVectorStore(ctrl)
			store.EXPECT().Ping(gomock.Any()).Return(tt.storeErr)

			handler := NewHealthHandler(store, tt.db)
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if diff := cmp.Diff(tt.wantChecks, resp.Checks); diff != "" {
				t.Errorf("checks mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantIssues, resp.Issues); diff != "" {
				t.Errorf("issues mismatch (-want +got):\n%s", diff)
			}
			if resp.Timestamp == "" {
				t.Error("Timestamp should be set")
			}
		})
	}
}
