package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	svcmocks "pdf-rag/internal/service/mocks"
	vsmocks "pdf-rag/internal/vectorstore/mocks"
)

func newTestRouter(t *testing.T) (http.Handler, *svcmocks.MockDocumentService, *svcmocks.MockSearchService, *vsmocks.MockVectorStore) {
	t.Helper()
	ctrl := gomock.NewController(t)

	docs := svcmocks.NewMockDocumentService(ctrl)
	search := svcmocks.NewMockSearchService(ctrl)
	store := vsmocks.NewMockVectorStore(ctrl)

	router := NewRouter(&Deps{
		DocumentService: docs,
		SearchService:   search,
		VectorStore:     store,
	})
	return router, docs, search, store
}

func TestNewRouter(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		setup      func(*svcmocks.MockDocumentService, *svcmocks.MockSearchService, *vsmocks.MockVectorStore)
		wantStatus int
	}{
		{
			name:       "POST /upload-pdfs exists",
			method:     http.MethodPost,
			path:       "/upload-pdfs",
			wantStatus: http.StatusBadRequest, // not multipart, but route exists
		},
		{
			name:   "DELETE /delete-file",
			method: http.MethodDelete,
			path:   "/delete-file?chat_id=c&filename=a.pdf",
			setup: func(d *svcmocks.MockDocumentService, _ *svcmocks.MockSearchService, _ *vsmocks.MockVectorStore) {
				d.EXPECT().DeleteFile(gomock.Any(), "c", "a.pdf").Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "DELETE /delete-files",
			method: http.MethodDelete,
			path:   "/delete-files?chat_id=c&filenames=a.pdf",
			setup: func(d *svcmocks.MockDocumentService, _ *svcmocks.MockSearchService, _ *vsmocks.MockVectorStore) {
				d.EXPECT().DeleteFiles(gomock.Any(), "c", []string{"a.pdf"}).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "DELETE /delete-chat",
			method: http.MethodDelete,
			path:   "/delete-chat?chat_id=c",
			setup: func(d *svcmocks.MockDocumentService, _ *svcmocks.MockSearchService, _ *vsmocks.MockVectorStore) {
				d.EXPECT().DeleteChat(gomock.Any(), "c").Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "GET /chat-files",
			method: http.MethodGet,
			path:   "/chat-files?chat_id=c",
			setup: func(d *svcmocks.MockDocumentService, _ *svcmocks.MockSearchService, _ *vsmocks.MockVectorStore) {
				d.EXPECT().ListFiles(gomock.Any(), "c").Return(nil, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "GET /search-chat",
			method: http.MethodGet,
			path:   "/search-chat?chat_id=c&query=q",
			setup: func(_ *svcmocks.MockDocumentService, s *svcmocks.MockSearchService, _ *vsmocks.MockVectorStore) {
				s.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]string{"x"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "GET /health",
			method: http.MethodGet,
			path:   "/health",
			setup: func(_ *svcmocks.MockDocumentService, _ *svcmocks.MockSearchService, v *vsmocks.MockVectorStore) {
				v.EXPECT().Ping(gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /upload-pdfs method not allowed",
			method:     http.MethodGet,
			path:       "/upload-pdfs",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "POST /delete-chat method not allowed",
			method:     http.MethodPost,
			path:       "/delete-chat?chat_id=c",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/chat",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			path:       "/delete-file",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, docs, search, store := newTestRouter(t)
			if tt.setup != nil {
				tt.setup(docs, search, store)
			}

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/upload-pdfs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
}

func TestRouter_RecoversPanics(t *testing.T) {
	router, docs, _, _ := newTestRouter(t)
	docs.EXPECT().DeleteChat(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, string) error {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodDelete, "/delete-chat?chat_id=c", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("panicking handler status = %v, want %v", w.Code, http.StatusInternalServerError)
	}
}
