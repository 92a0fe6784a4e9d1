package rag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"

	"pdf-rag/internal/rag"
	"pdf-rag/internal/vectorstore"
	"pdf-rag/internal/vectorstore/mocks"
)

func TestRetriever_Retrieve_ScoreThreshold(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)

	store.EXPECT().
		Search(gomock.Any(), "chat-1", "what is go", rag.DefaultTopK).
		Return([]vectorstore.Hit{
			{ID: "a", Score: 0.5, Text: "high", Source: "a.pdf", Page: "1"},
			{ID: "b", Score: 0.11, Text: "just above", Source: "a.pdf", Page: "2"},
			{ID: "c", Score: 0.1, Text: "at threshold", Source: "b.pdf", Page: "1"},
			{ID: "d", Score: 0.05, Text: "low", Source: "b.pdf", Page: "3"},
		}, nil)

	r := rag.NewRetriever(store, "chat-1")
	got, err := r.Retrieve(context.Background(), "what is go")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	want := []rag.Document{
		{Text: "high", Source: "a.pdf", Page: "1", Score: 0.5},
		{Text: "just above", Source: "a.pdf", Page: "2", Score: 0.11},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Retrieve() mismatch (-want +got):\n%s", diff)
	}
}

func TestRetriever_Retrieve_BlankQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)

	r := rag.NewRetriever(store, "chat-1")
	for _, q := range []string{"", "   ", "\n\t"} {
		got, err := r.Retrieve(context.Background(), q)
		if err != nil {
			t.Fatalf("Retrieve(%q) error = %v", q, err)
		}
		if len(got) != 0 {
			t.Errorf("Retrieve(%q) = %v, want empty", q, got)
		}
	}
}

func TestRetriever_Retrieve_NoHits(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().Search(gomock.Any(), "chat-2", "q", rag.DefaultTopK).Return(nil, nil)

	got, err := rag.NewRetriever(store, "chat-2").Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Retrieve() = %v, want empty", got)
	}
}

func TestRetriever_Retrieve_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	storeErr := errors.New("connection refused")
	store.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, storeErr)

	_, err := rag.NewRetriever(store, "chat-1").Retrieve(context.Background(), "q")
	if !errors.Is(err, storeErr) {
		t.Errorf("Retrieve() error = %v, want wrapping %v", err, storeErr)
	}
}
