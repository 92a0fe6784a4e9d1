package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"

	"pdf-rag/internal/service"
	"pdf-rag/internal/service/mocks"
)

func TestSearchHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		mockSetup  func(*mocks.MockSearchService)
		wantStatus int
		wantBody   []string
	}{
		{
			name:   "successful search",
			target: "/search-chat?query=what+is+go&chat_id=chat-1",
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().
					Search(gomock.Any(), service.SearchRequest{ChatID: "chat-1", Query: "what is go"}).
					Return([]string{"- Go is a language."}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   []string{"- Go is a language."},
		},
		{
			name:   "html format",
			target: "/search-chat?query=q&chat_id=chat-1&format=html",
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().
					Search(gomock.Any(), service.SearchRequest{ChatID: "chat-1", Query: "q", Format: "html"}).
					Return([]string{"<ul>\n<li>a</li>\n</ul>\n"}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   []string{"<ul>\n<li>a</li>\n</ul>\n"},
		},
		{
			name:   "empty query is passed through",
			target: "/search-chat?query=&chat_id=chat-1",
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().
					Search(gomock.Any(), service.SearchRequest{ChatID: "chat-1"}).
					Return([]string{"No relevant information found"}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   []string{"No relevant information found"},
		},
		{
			name:       "missing query",
			target:     "/search-chat?chat_id=chat-1",
			mockSetup:  func(m *mocks.MockSearchService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "upstream failure",
			target: "/search-chat?query=q&chat_id=chat-1",
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), gomock.Any()).
					Return(nil, &service.UpstreamError{Service: "rag", Err: errors.New("llm timeout")})
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockSearch := mocks.NewMockSearchService(ctrl)
			tt.mockSetup(mockSearch)
			handler := NewSearchHandler(mockSearch)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantBody == nil {
				return
			}
			var got []string
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if diff := cmp.Diff(tt.wantBody, got); diff != "" {
				t.Errorf("ServeHTTP() body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
