package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPolicyForSize(t *testing.T) {
	tests := []struct {
		name      string
		sizeBytes int64
		want      SplitPolicy
	}{
		{name: "empty file", sizeBytes: 0, want: SplitPolicy{ChunkSize: 100, ChunkOverlap: 1}},
		{name: "under one KB", sizeBytes: 1023, want: SplitPolicy{ChunkSize: 100, ChunkOverlap: 1}},
		{name: "one KB", sizeBytes: 1024, want: SplitPolicy{ChunkSize: 100, ChunkOverlap: 1}},
		{name: "32 KB", sizeBytes: 32 * 1024, want: SplitPolicy{ChunkSize: 168, ChunkOverlap: 1}},
		{name: "1 MB", sizeBytes: 1024 * 1024, want: SplitPolicy{ChunkSize: 282, ChunkOverlap: 1}},
		{name: "huge file is capped", sizeBytes: 1_000_000_000 * 1024, want: SplitPolicy{ChunkSize: 800, ChunkOverlap: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolicyForSize(tt.sizeBytes); got != tt.want {
				t.Errorf("PolicyForSize(%d) = %+v, want %+v", tt.sizeBytes, got, tt.want)
			}
		})
	}
}

func TestPolicyForSize_Bounds(t *testing.T) {
	prev := PolicyForSize(0)
	for size := int64(0); size < 1<<40; size = size*3 + 1 {
		got := PolicyForSize(size)
		if got.ChunkSize < 100 || got.ChunkSize > 800 {
			t.Errorf("PolicyForSize(%d) chunk size %d out of [100, 800]", size, got.ChunkSize)
		}
		if got.ChunkOverlap < 1 || got.ChunkOverlap > got.ChunkSize/3 {
			t.Errorf("PolicyForSize(%d) overlap %d out of [1, %d]", size, got.ChunkOverlap, got.ChunkSize/3)
		}
		if got.ChunkSize < prev.ChunkSize {
			t.Errorf("PolicyForSize(%d) chunk size %d shrank from %d", size, got.ChunkSize, prev.ChunkSize)
		}
		prev = got
	}
}

func TestSplitter_Split(t *testing.T) {
	splitter := NewSplitter(SplitPolicy{ChunkSize: 100, ChunkOverlap: 1})
	text := strings.Repeat("This sentence talks about retrieval. ", 40)

	pieces, err := splitter.Split(text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(pieces) < 2 {
		t.Fatalf("Split() returned %d pieces, want several", len(pieces))
	}
	for i, p := range pieces {
		if p == "" || p != strings.TrimSpace(p) {
			t.Errorf("piece %d = %q, want trimmed non-empty text", i, p)
		}
		if n := utf8.RuneCountInString(p); n > 100 {
			t.Errorf("piece %d has %d runes, want <= 100", i, n)
		}
	}
}

func TestSplitter_KeepsSentencePunctuation(t *testing.T) {
	splitter := NewSplitter(SplitPolicy{ChunkSize: 30, ChunkOverlap: 1})
	text := "The cat sat on the mat. It was warm. The sun was out. Birds sang loudly."

	pieces, err := splitter.Split(text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(pieces) < 2 {
		t.Fatalf("Split() returned %d pieces, want several", len(pieces))
	}

	joined := strings.Join(pieces, " ")
	if got, want := strings.Count(joined, "."), strings.Count(text, "."); got != want {
		t.Errorf("Split() kept %d periods, want %d: %q", got, want, pieces)
	}
	for _, word := range []string{"mat", "warm", "out", "loudly"} {
		if !strings.Contains(joined, word) {
			t.Errorf("Split() lost %q: %q", word, pieces)
		}
	}
}

func TestSplitter_DropsBlankPieces(t *testing.T) {
	splitter := NewSplitter(SplitPolicy{ChunkSize: 100, ChunkOverlap: 1})

	pieces, err := splitter.Split("   \n\n  ")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(pieces) != 0 {
		t.Errorf("Split() of blank text = %q, want none", pieces)
	}
}

func TestChunk_Text(t *testing.T) {
	body := "Body text."
	tests := []struct {
		name      string
		chunk     Chunk
		wantText  string
		wantEmpty bool
	}{
		{name: "heading and content", chunk: Chunk{Heading: "Title", Content: &body}, wantText: "Title\nBody text."},
		{name: "heading only", chunk: Chunk{Heading: "Title"}, wantText: "Title"},
		{name: "blank page", chunk: Chunk{}, wantText: "", wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chunk.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if got := tt.chunk.Empty(); got != tt.wantEmpty {
				t.Errorf("Empty() = %v, want %v", got, tt.wantEmpty)
			}
		})
	}
}
