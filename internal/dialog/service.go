// Package dialog holds at most one pending confirmation prompt per visitor
// and resolves it exactly once, however it is dismissed.
package dialog

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTitle        = "提示"
	DefaultConfirmLabel = "确定"
	DefaultCancelLabel  = "取消"
)

var (
	// ErrNoPrompt is returned when dismissing while nothing is open
	ErrNoPrompt = errors.New("no pending prompt")
	// ErrStalePrompt is returned when dismissing a prompt that is no longer current
	ErrStalePrompt = errors.New("prompt already resolved")
	// ErrUnknownDismissal is returned for an unrecognised dismissal path
	ErrUnknownDismissal = errors.New("unknown dismissal")
)

// Outcome is how a prompt resolved
type Outcome int

const (
	Declined Outcome = iota
	Accepted
)

func (o Outcome) String() string {
	if o == Accepted {
		return "accepted"
	}
	return "declined"
}

// Dismissal is the way a visitor closed a prompt
type Dismissal string

const (
	DismissAccept   Dismissal = "accept"
	DismissDecline  Dismissal = "decline"
	DismissBackdrop Dismissal = "backdrop"
	DismissEscape   Dismissal = "escape"
)

// ParseDismissal validates a dismissal received from a form
func ParseDismissal(raw string) (Dismissal, error) {
	switch d := Dismissal(raw); d {
	case DismissAccept, DismissDecline, DismissBackdrop, DismissEscape:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDismissal, raw)
	}
}

// Request is the content of a prompt
type Request struct {
	Message      string
	Title        string
	ConfirmLabel string
	// CancelLabel is empty for a single-button informational prompt
	CancelLabel string
	// Warning styles the prompt as a blocking warning
	Warning bool
	// AcceptTarget is where the visitor continues once the prompt is accepted
	AcceptTarget string
}

// NewConfirm creates a two-button confirmation with the default labels
func NewConfirm(message string) Request {
	return Request{Message: message, CancelLabel: DefaultCancelLabel}
}

// NewAlert creates a single-button informational prompt
func NewAlert(message, title, label string) Request {
	return Request{Message: message, Title: title, ConfirmLabel: label}
}

// SingleButton reports whether the prompt only offers the confirm button
func (r Request) SingleButton() bool {
	return r.CancelLabel == ""
}

// withDefaults fills empty labels
func (r Request) withDefaults() Request {
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.ConfirmLabel == "" {
		r.ConfirmLabel = DefaultConfirmLabel
	}
	return r
}

// Resolve maps a dismissal to an outcome.
// Single-button prompts accept on every path; two-button prompts accept
// only on the explicit confirm button.
func (r Request) Resolve(d Dismissal) Outcome {
	if r.SingleButton() || d == DismissAccept {
		return Accepted
	}
	return Declined
}

// Prompt is an opened dialog
type Prompt struct {
	ID       string
	Request  Request
	OpenedAt time.Time

	once    sync.Once
	done    chan struct{}
	outcome Outcome
	how     Dismissal
}

func newPrompt(req Request, now time.Time) *Prompt {
	return &Prompt{
		ID:       uuid.NewString(),
		Request:  req.withDefaults(),
		OpenedAt: now,
		done:     make(chan struct{}),
	}
}

// resolve settles the prompt; later calls are ignored
func (p *Prompt) resolve(d Dismissal) bool {
	resolved := false
	p.once.Do(func() {
		p.outcome = p.Request.Resolve(d)
		p.how = d
		close(p.done)
		resolved = true
	})
	return resolved
}

// Result returns the outcome and dismissal path once resolved
func (p *Prompt) Result() (Outcome, Dismissal, bool) {
	select {
	case <-p.done:
		return p.outcome, p.how, true
	default:
		return Declined, "", false
	}
}

// Service holds a single pending prompt slot
type Service struct {
	mu      sync.Mutex
	current *Prompt
	now     func() time.Time
}

// NewService creates an empty dialog service
func NewService() *Service {
	return &Service{now: time.Now}
}

// Open shows a prompt. A prompt that is still open is superseded: the
// latest content wins and the old one resolves as a backdrop dismissal.
func (s *Service) Open(req Request) *Prompt {
	p := newPrompt(req, s.now())

	s.mu.Lock()
	previous := s.current
	s.current = p
	s.mu.Unlock()

	if previous != nil {
		previous.resolve(DismissBackdrop)
	}
	return p
}

// Current returns the open prompt, if any
func (s *Service) Current() (*Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

// Dismiss closes the open prompt if its id matches
func (s *Service) Dismiss(id string, d Dismissal) (*Prompt, Outcome, error) {
	s.mu.Lock()
	p := s.current
	if p == nil {
		s.mu.Unlock()
		return nil, Declined, ErrNoPrompt
	}
	if p.ID != id {
		s.mu.Unlock()
		return nil, Declined, fmt.Errorf("%w: %s", ErrStalePrompt, id)
	}
	s.current = nil
	s.mu.Unlock()

	p.resolve(d)
	outcome, _, _ := p.Result()
	return p, outcome, nil
}
