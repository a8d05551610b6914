package sessions

import (
	"time"

	"github.com/alexschlessinger/rotorchat/messages"
)

// Session is one conversation's history. Assistant messages are stored
// sanitized, so reasoning never reaches persistence.
type Session interface {
	GetHistory() []messages.ChatMessage
	AddMessage(messages.ChatMessage)
	Clear()
	Close() // Release resources (file locks)

	GetName() string
	GetMetadata() *Metadata
	UpdateMetadata(*Metadata) error // Apply non-zero fields
	GetLastUsed() time.Time
}

// SessionStore manages multiple sessions
type SessionStore interface {
	Get(string) (Session, error)
	Delete(string)
	Expire()

	List() ([]string, error)
	Exists(string) bool
	GetAllMetadata() map[string]*Metadata
	GetLast() string // Name of the most recently used session
}
