// Package chat drives conversations: per-user history, the single-flight
// turn flow and the registry of live web sessions.
package chat

import (
	"fmt"

	"github.com/papercomputeco/helpbot/pkg/rag"
)

// Role identifies who produced a Turn.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// MarshalText encodes the role as "user" or "assistant".
func (r Role) MarshalText() ([]byte, error) {
	switch r {
	case RoleUser, RoleAssistant:
		return []byte(r.String()), nil
	default:
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
}

// UnmarshalText accepts "user" or "assistant".
func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "user":
		*r = RoleUser
	case "assistant":
		*r = RoleAssistant
	default:
		return fmt.Errorf("invalid role %q", string(b))
	}
	return nil
}

// Turn is one message of a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is an ordered list of turns with a length bound. It is not safe
// for concurrent use; a Session guards its own.
type History struct {
	max   int
	turns []Turn
}

// NewHistory returns an empty history bounded by max. max <= 0 means
// unbounded.
func NewHistory(max int) *History {
	return &History{max: max}
}

// Append adds t. When the new length would reach the bound, the oldest turn
// is evicted and the whole history is then cleared, t included. Append
// reports whether that reset happened.
func (h *History) Append(t Turn) bool {
	if h.max > 0 && len(h.turns)+1 >= h.max {
		if len(h.turns) > 0 {
			h.turns = h.turns[1:]
		}
		h.Clear()
		return true
	}
	h.turns = append(h.turns, t)
	return false
}

// Clear empties the history.
func (h *History) Clear() {
	h.turns = nil
}

// Len returns the number of turns.
func (h *History) Len() int {
	return len(h.turns)
}

// Max returns the configured bound.
func (h *History) Max() int {
	return h.max
}

// Turns returns a copy of the turns, oldest first.
func (h *History) Turns() []Turn {
	return append([]Turn{}, h.turns...)
}

// Exchanges pairs each assistant turn with the most recent user turn before
// it. A trailing user turn with no answer yet is left out, as is an
// assistant turn with no user turn before it.
func (h *History) Exchanges() []rag.Exchange {
	var (
		out      []rag.Exchange
		lastUser string
		seenUser bool
	)
	for _, t := range h.turns {
		switch t.Role {
		case RoleUser:
			lastUser = t.Content
			seenUser = true
		case RoleAssistant:
			if seenUser {
				out = append(out, rag.Exchange{User: lastUser, Assistant: t.Content})
			}
		}
	}
	return out
}
