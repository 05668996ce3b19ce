// Package chat keeps the counsellor conversation of each browser session.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	Greeting   = "Hello! I'm your AI study abroad counsellor. How can I help you today?"
	ErrorReply = "Sorry, I encountered an error. Please try again."

	DefaultMaxMessages = 200
)

var ErrBusy = errors.New("a message is already being answered")

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

type Message struct {
	ID     string
	Role   Role
	Text   string
	Action string // SHORTLIST or LOCK when the counsellor acted for the user
	At     time.Time
}

// Counsellor answers one message
type Counsellor interface {
	Chat(ctx context.Context, token string, req backend.ChatRequest) (backend.ChatReply, error)
}

// Conversation is one session's message history. Only one message may be
// awaiting an answer at a time.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
	max      int
	busy     bool
	now      func() time.Time
}

func NewConversation(maxMessages int) *Conversation {
	if maxMessages < 2 {
		maxMessages = DefaultMaxMessages
	}
	c := &Conversation{max: maxMessages, now: time.Now}
	c.append(RoleBot, Greeting, "")
	return c
}

// Messages returns a copy of the history, oldest first
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Send records text, asks the counsellor and records the answer. When the
// counsellor fails an apology is recorded instead and the error is returned
// alongside it.
func (c *Conversation) Send(ctx context.Context, api Counsellor, token string, profile *backend.Profile, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, errors.Wrapf(errors.ErrInvalidInput, "[Conversation Send] empty message")
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Message{}, ErrBusy
	}
	c.busy = true
	c.append(RoleUser, text, "")
	c.mu.Unlock()

	reply, err := api.Chat(ctx, token, backend.ChatRequest{Message: text, Profile: profile})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err != nil {
		log.Err(err).Msg("Counsellor chat failed")
		return c.append(RoleBot, ErrorReply, ""), err
	}
	return c.append(RoleBot, reply.Reply, reply.ActionTaken), nil
}

// append adds a message, dropping the oldest beyond the limit. Caller holds mu.
func (c *Conversation) append(role Role, text, action string) Message {
	m := Message{ID: uuid.NewString(), Role: role, Text: text, Action: action, At: c.now()}
	c.messages = append(c.messages, m)
	if over := len(c.messages) - c.max; over > 0 {
		c.messages = append([]Message(nil), c.messages[over:]...)
	}
	return m
}

// Conversations keeps one Conversation per browser session
type Conversations struct {
	mu    sync.Mutex
	max   int
	convs map[string]*Conversation
}

func NewConversations(maxMessages int) *Conversations {
	return &Conversations{max: maxMessages, convs: make(map[string]*Conversation)}
}

func (cs *Conversations) Get(sessionID string) *Conversation {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	c, ok := cs.convs[sessionID]
	if !ok {
		c = NewConversation(cs.max)
		cs.convs[sessionID] = c
	}
	return c
}

func (cs *Conversations) Forget(sessionID string) {
	cs.mu.Lock()
	delete(cs.convs, sessionID)
	cs.mu.Unlock()
}
