package indexer

// Chunk is one block of text extracted from a page of a PDF.
type Chunk struct {
	Heading string  // First non-empty line of the page
	Content *string // Remaining page text, nil when the page holds only a heading
	Page    int     // 1-based page number
	Source  string  // Base filename of the PDF
}

// Text joins heading and content the way they are split and embedded.
func (c Chunk) Text() string {
	if c.Content == nil {
		return c.Heading
	}
	return c.Heading + "\n" + *c.Content
}

// Empty reports whether the chunk carries no text at all.
func (c Chunk) Empty() bool {
	return c.Heading == "" && (c.Content == nil || *c.Content == "")
}
