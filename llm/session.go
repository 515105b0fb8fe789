package llm

import (
	"context"
	"errors"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// ErrSessionClosed is returned when a request is made on a closed session.
var ErrSessionClosed = errors.New("llm: session closed")

// Session wraps a Client and enforces the backend's single-in-flight-request
// constraint. A fresh session is created per analysis run and must be closed
// when the run finishes; a stale session must never be reused across runs.
type Session struct {
	mu     sync.Mutex
	client Client
	closed bool
}

// NewSession creates a session around the given client.
func NewSession(client Client) *Session {
	return &Session{client: client}
}

// CreateChatCompletion serializes requests through the session. Calls after
// Close fail with ErrSessionClosed.
func (s *Session) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return openai.ChatCompletionResponse{}, ErrSessionClosed
	}
	return s.client.CreateChatCompletion(ctx, req)
}

// Close releases the session. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
