package guard

import (
	"context"
	"sync"
)

// PromptKind identifies which irreversible transition is being confirmed.
type PromptKind string

const (
	PromptUnstart PromptKind = "unstart"
	PromptClose   PromptKind = "close"
	PromptReopen  PromptKind = "reopen"
)

// Prompt is the question put to the operator.
type Prompt struct {
	Kind    PromptKind `json:"kind"`
	Message string     `json:"message"`
}

// Confirmer asks the operator to accept or decline a prompt. It may block
// until the operator answers; an error counts as a decline.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// Answer returns a Confirmer that answers every prompt with accepted.
func Answer(accepted bool) Confirmer {
	return ConfirmFunc(func(context.Context, Prompt) (bool, error) { return accepted, nil })
}

// RequireAnswer is the confirmer for callers that cannot prompt: it reports
// ErrConfirmationRequired so the prompt can be surfaced and resubmitted.
func RequireAnswer() Confirmer {
	return ConfirmFunc(func(context.Context, Prompt) (bool, error) { return false, ErrConfirmationRequired })
}

// Notifier shows a message to the operator (the blocking alert of a browser).
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(ctx context.Context, message string)

// Notify implements Notifier.
func (f NotifyFunc) Notify(ctx context.Context, message string) { f(ctx, message) }

// Script is a scripted Confirmer and Notifier that records what it was asked.
// Once the answers run out it declines.
type Script struct {
	mu       sync.Mutex
	answers  []bool
	prompts  []Prompt
	messages []string
}

// NewScript returns a Script that replies with answers in order.
func NewScript(answers ...bool) *Script {
	return &Script{answers: answers}
}

// Confirm implements Confirmer.
func (s *Script) Confirm(_ context.Context, p Prompt) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	if len(s.answers) == 0 {
		return false, nil
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

// Notify implements Notifier.
func (s *Script) Notify(_ context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
}

// Prompts returns the prompts seen so far.
func (s *Script) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Prompt(nil), s.prompts...)
}

// Messages returns the notifications seen so far.
func (s *Script) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}
