package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client abstracts a chat-completion provider. Callers treat any error
// as "generation failed" and substitute a fallback at the route layer.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
