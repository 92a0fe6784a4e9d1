package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"

	"pdf-rag/internal/rag"
	ragmocks "pdf-rag/internal/rag/mocks"
	"pdf-rag/internal/service"
)

func TestSearchService_Search(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		answers []string
		want    []string
	}{
		{
			name:    "markdown by default",
			answers: []string{"- Go is compiled.\n- Go has goroutines."},
			want:    []string{"- Go is compiled.\n- Go has goroutines."},
		},
		{
			name:    "explicit markdown",
			format:  "markdown",
			answers: []string{rag.NoRelevantInformation},
			want:    []string{rag.NoRelevantInformation},
		},
		{
			name:    "html",
			format:  "HTML",
			answers: []string{"- a\n- **b**"},
			want:    []string{"<ul>\n<li>a</li>\n<li><strong>b</strong></li>\n</ul>\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			engine := ragmocks.NewMockEngine(ctrl)
			engine.EXPECT().Answer(gomock.Any(), "chat-1", "what is go").Return(tt.answers, nil)

			svc := service.NewSearchService(engine)
			got, err := svc.Search(context.Background(), service.SearchRequest{ChatID: "chat-1", Query: "what is go", Format: tt.format})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Search() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchService_Search_Validation(t *testing.T) {
	tests := []struct {
		name      string
		req       service.SearchRequest
		wantField string
	}{
		{name: "missing chat id", req: service.SearchRequest{Query: "q"}, wantField: "chat_id"},
		{name: "unknown format", req: service.SearchRequest{ChatID: "c", Query: "q", Format: "pdf"}, wantField: "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := service.NewSearchService(ragmocks.NewMockEngine(ctrl))

			_, err := svc.Search(context.Background(), tt.req)
			var ve *service.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.wantField {
				t.Errorf("Search() error = %v, want ValidationError on %s", err, tt.wantField)
			}
		})
	}
}

func TestSearchService_Search_EngineError(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	llmErr := errors.New("429 too many requests")
	engine.EXPECT().Answer(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, llmErr)

	_, err := service.NewSearchService(engine).Search(context.Background(), service.SearchRequest{ChatID: "c", Query: "q"})
	if !errors.Is(err, service.ErrExternalService) || !errors.Is(err, llmErr) {
		t.Errorf("Search() error = %v, want upstream error wrapping %v", err, llmErr)
	}
}
