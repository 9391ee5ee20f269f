// Package chat keeps the client-side conversation with the budget assistant.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"pennywise/internal/assistant"
	"pennywise/internal/logger"
	"pennywise/internal/uuid"
)

// MaxMessages is the number of messages a session retains.
const MaxMessages = 50

var (
	// ErrInvalidQuestion is returned for blank or over-long questions. The
	// session is left untouched.
	ErrInvalidQuestion = errors.New("chat: question must be between 1 and 1000 characters")
	// ErrBusy is returned while a previous question is still awaiting its answer.
	ErrBusy = errors.New("chat: a question is already in flight")
)

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// State is the session's send state.
type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
	StateError   State = "error"
)

// Message is one entry in the conversation log.
type Message struct {
	ID                 string              `json:"id"`
	Role               Role                `json:"role"`
	Content            string              `json:"content"`
	Data               any                 `json:"data,omitempty"`
	ToolUsed           *assistant.ToolKind `json:"tool_used,omitempty"`
	NeedsClarification bool                `json:"needs_clarification,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

// Request is the question handed to the assistant.
type Request struct {
	Question string `json:"question"`
	BudgetID *uint  `json:"budgetId,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Asker answers questions, usually over the network.
type Asker interface {
	Ask(ctx context.Context, req Request) (*assistant.Answer, error)
}

// Session is a bounded, single-flight conversation. It is safe for
// concurrent use.
type Session struct {
	asker    Asker
	timezone string
	now      func() time.Time
	log      *zap.SugaredLogger

	mu       sync.Mutex
	messages []Message
	state    State
	err      error
	// epoch changes on Clear so replies to questions sent before it are dropped.
	epoch uint64
}

// Option customises a Session.
type Option func(*Session)

// WithTimezone sets the IANA zone sent with every question.
func WithTimezone(tz string) Option { return func(s *Session) { s.timezone = tz } }

// WithClock overrides the time source for message timestamps.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// NewSession creates an empty, idle session.
func NewSession(asker Asker, opts ...Option) *Session {
	s := &Session{
		asker: asker,
		now:   time.Now,
		state: StateIdle,
		log:   logger.Named("chat"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send appends the question, waits for the answer and appends it. On failure
// the question stays in the log, the session enters StateError and no answer
// is appended.
func (s *Session) Send(ctx context.Context, question string, budgetID *uint) error {
	question = strings.TrimSpace(question)
	if question == "" || utf8.RuneCountInString(question) > assistant.MaxQuestionLength {
		return ErrInvalidQuestion
	}

	s.mu.Lock()
	if s.state == StateSending {
		s.mu.Unlock()
		return ErrBusy
	}
	s.appendLocked(Message{ID: uuid.New(), Role: RoleUser, Content: question, CreatedAt: s.now()})
	s.state = StateSending
	s.err = nil
	epoch := s.epoch
	s.mu.Unlock()

	answer, err := s.asker.Ask(ctx, Request{Question: question, BudgetID: budgetID, Timezone: s.timezone})

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		s.log.Debugw("Dropped reply to a cleared conversation", "error", err)
		return err
	}
	if err != nil {
		s.state = StateError
		s.err = err
		s.log.Warnw("Assistant request failed", "error", err)
		return err
	}

	s.appendLocked(Message{
		ID:                 uuid.New(),
		Role:               RoleAssistant,
		Content:            answer.Answer,
		Data:               answer.Data,
		ToolUsed:           answer.ToolUsed,
		NeedsClarification: answer.NeedsClarification,
		CreatedAt:          s.now(),
	})
	s.state = StateIdle
	return nil
}

// Clear empties the log and any held error. A reply still in flight is
// discarded when it arrives.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.err = nil
	s.state = StateIdle
	s.epoch++
}

// Messages returns a copy of the log, oldest first.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// State reports the current send state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error of the last failed send, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) appendLocked(m Message) {
	s.messages = append(s.messages, m)
	if over := len(s.messages) - MaxMessages; over > 0 {
		s.messages = append([]Message(nil), s.messages[over:]...)
	}
}
