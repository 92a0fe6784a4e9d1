package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks pdf-rag/internal/rag Engine,LLMClient

import (
	"context"
	"fmt"
	"strings"

	"pdf-rag/internal/contextutil"
	"pdf-rag/internal/vectorstore"
)

// NoRelevantInformation is the answer when retrieval finds nothing.
const NoRelevantInformation = "No relevant information found"

const formatterPrompt = `You are a text formatter. You will be given:
1. A user query
2. Raw extracted text chunks

Your job:
- Select only the information relevant to the query
- Remove duplicates, redundant, and unnecessary fragments
- Rephrase slightly for clarity if needed
- STRICTLY do not add new knowledge
- Output only the cleaned statements as **Markdown bullet points**

User Query:
%s

Extracted Text:
%s

Return only the final cleaned Markdown bullet points:`

// LLMClient sends a single prompt and returns the reply text.
type LLMClient interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Engine answers questions from the documents uploaded to a chat.
type Engine interface {
	// Answer expands the query, retrieves from the chat's namespace and
	// returns the formatted answer as a one-element list.
	Answer(ctx context.Context, chatID, query string) ([]string, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	store     vectorstore.VectorStore
	llmClient LLMClient
	mqOpts    []MultiQueryOption
}

// NewEngine creates a new RAG engine.
func NewEngine(store vectorstore.VectorStore, llmClient LLMClient, opts ...MultiQueryOption) Engine {
	return &ragEngine{
		store:     store,
		llmClient: llmClient,
		mqOpts:    opts,
	}
}

// Answer retrieves with query expansion and formats the result.
func (e *ragEngine) Answer(ctx context.Context, chatID, query string) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	logger.InfoContext(ctx, "RAG query started", "chat_id", chatID, "query_length", len(query))

	retriever := NewMultiQueryRetriever(NewRetriever(e.store, chatID), e.llmClient, e.mqOpts...)
	docs, err := retriever.Retrieve(ctx, query)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "chat_id", chatID, "error", err)
		return nil, err
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	answer, err := e.Generate(ctx, query, texts)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "chat_id", chatID, "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "RAG query completed", "chat_id", chatID, "documents", len(docs), "answer_length", len(answer))
	return []string{answer}, nil
}

// Generate asks the LLM to condense texts into Markdown bullet points.
// With no texts it returns NoRelevantInformation without calling the LLM.
func (e *ragEngine) Generate(ctx context.Context, query string, texts []string) (string, error) {
	if len(texts) == 0 {
		return NoRelevantInformation, nil
	}

	prompt := fmt.Sprintf(formatterPrompt, query, strings.Join(texts, "\n\n"))
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "sending request to LLM", "prompt_length", len(prompt), "chunks", len(texts))

	answer, err := e.llmClient.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to get LLM response: %w", err)
	}
	return answer, nil
}
