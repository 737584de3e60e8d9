package domain

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem is the system instruction role.
	RoleSystem Role = "system"
	// RoleUser is the end-user role.
	RoleUser Role = "user"
)

// Message is one entry of an ordered chat prompt.
type Message struct {
	Role    Role
	Content string
}

// Completer generates answers from a chat prompt, either as one block or as
// an ordered stream of text increments.
type Completer interface {
	Complete(ctx context.Context, messages []Message, maxTokens int, temperature float32) (string, error)
	CompleteStream(ctx context.Context, messages []Message, maxTokens int, temperature float32) (CompletionStream, error)
}

// CompletionStream yields answer text increments in provider order.
// Recv returns io.EOF when the stream is exhausted.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}
