// Package session tracks per-user dialogue progress in memory.
package session

import (
	"time"

	"github.com/m3rciful/promobot/promo"
)

// State identifies a dialogue step in the conversation machine.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
	// StateAwaitingPlatform means the user was offered the platform keyboard.
	StateAwaitingPlatform State = "awaiting_platform"
	// StateAwaitingTopic means the platform is chosen and a topic is expected.
	StateAwaitingTopic State = "awaiting_topic"
	// StateGenerating means a generation call is in flight for the user.
	StateGenerating State = "generating"
)

// Session is the per-user dialogue record. UserID never changes after
// creation; all other fields are mutated through Store.Update only.
type Session struct {
	UserID       int64
	State        State
	Platform     promo.Platform
	Topic        string
	LastActivity time.Time
}

// Reset returns the session to the idle state and clears collected input.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Platform = ""
	s.Topic = ""
}
