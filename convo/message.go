// Package convo defines the conversation message shape shared by the MCTS
// engine, its oracle contracts, and the orchestrator's inputs and outputs.
package convo

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// validRoles is used by Validate to reject anything outside the four-role set.
var validRoles = map[Role]bool{
	RoleUser:      true,
	RoleAssistant: true,
	RoleSystem:    true,
	RoleTool:      true,
}

var validate = validator.New()

// Message is a single turn in a conversation. It is immutable once
// constructed: nothing in this repository mutates a Message's fields after
// NewMessage returns.
type Message struct {
	Role    Role   `validate:"required"`
	Content string `validate:"required"`

	// CreatedAt is optional provenance carried through from the caller's
	// persisted history; the engine never reads or compares it.
	CreatedAt time.Time
}

// NewMessage constructs a Message, validating that role is one of the four
// known roles and content is non-empty.
func NewMessage(role Role, content string) (Message, error) {
	msg := Message{Role: role, Content: content}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Validate reports whether m has a recognised role and non-empty content.
func (m Message) Validate() error {
	if !validRoles[m.Role] {
		return &InvalidRoleError{Role: m.Role}
	}
	return validate.Struct(m)
}

// InvalidRoleError is returned by Validate when Role is outside
// {user, assistant, system, tool}.
type InvalidRoleError struct {
	Role Role
}

func (e *InvalidRoleError) Error() string {
	return "convo: invalid role " + string(e.Role)
}

// History is an ordered, immutable sequence of messages.
type History []Message

// WithAssistantReply returns a new History with an assistant message
// appended, leaving h untouched.
func (h History) WithAssistantReply(content string) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, Message{Role: RoleAssistant, Content: content})
}

// WithMessages returns a new History with additional messages appended,
// leaving h untouched.
func (h History) WithMessages(msgs ...Message) History {
	out := make(History, len(h), len(h)+len(msgs))
	copy(out, h)
	return append(out, msgs...)
}
