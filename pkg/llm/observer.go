package llm

import (
	"context"
	"time"
)

// LLMObserver receives a notification after every service call, whether it
// succeeded or failed. Implementations must not block.
type LLMObserver interface {
	OnLLMCall(ctx context.Context, event LLMCallEvent)
}

// LLMCallEvent describes one service call.
type LLMCallEvent struct {
	Provider string
	Model    string

	Request LLMCallRequest

	// Response is nil if the call failed before a response arrived.
	Response *LLMCallResponse

	Error     error
	Duration  time.Duration
	StartedAt time.Time
}

// LLMCallRequest contains the request sent to the service.
type LLMCallRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// InputSize is the length in bytes of the user text being read.
	InputSize int
}

// LLMCallResponse contains the response from the service.
type LLMCallResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	FinishReason string
}

// ObserverFunc is a convenience type for using a function as an LLMObserver.
type ObserverFunc func(ctx context.Context, event LLMCallEvent)

// OnLLMCall implements LLMObserver.
func (f ObserverFunc) OnLLMCall(ctx context.Context, event LLMCallEvent) {
	f(ctx, event)
}

// MultiObserver combines multiple observers into one.
type MultiObserver struct {
	observers []LLMObserver
}

// NewMultiObserver creates an observer that dispatches to multiple observers.
func NewMultiObserver(observers ...LLMObserver) *MultiObserver {
	return &MultiObserver{observers: observers}
}

// OnLLMCall dispatches the event to all registered observers.
func (m *MultiObserver) OnLLMCall(ctx context.Context, event LLMCallEvent) {
	for _, obs := range m.observers {
		obs.OnLLMCall(ctx, event)
	}
}

// Add adds an observer to the multi-observer.
func (m *MultiObserver) Add(obs LLMObserver) {
	m.observers = append(m.observers, obs)
}
