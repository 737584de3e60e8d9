package domain

import "errors"

var (
	// ErrEmptyQuestion signals a missing or blank question in an ask request.
	ErrEmptyQuestion = errors.New("question is required")
	// ErrMissingEmail signals a history operation without an email.
	ErrMissingEmail = errors.New("email is required")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrCompletionProvider signals a completion provider failure.
	ErrCompletionProvider = errors.New("completion provider error")
	// ErrIndexUnavailable signals a vector index storage failure.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrPersistence signals a history store failure.
	ErrPersistence = errors.New("history store error")
)
