// Package picker implements a one-shot request/response mailbox for
// cross-screen handoffs: a screen opens a request and receives a token, a
// second screen fulfills the token with a picked value, and the first
// screen claims the result exactly once. There is no ambient shared state
// between the two sides, only the token.
package picker

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrTokenNotFound = errors.New("pick token not found or expired")
	ErrNotFulfilled  = errors.New("pick request not fulfilled yet")
)

// DefaultTTL bounds the lifetime of an abandoned pick request.
const DefaultTTL = 15 * time.Minute

// Pick is the fulfilled value: which workout the user chose.
type Pick struct {
	WorkoutID primitive.ObjectID `json:"workoutId"`
}

type entry struct {
	ownerID   primitive.ObjectID
	pick      *Pick
	expiresAt time.Time
}

// Mailbox holds pending pick requests in memory. Entries live for one
// handoff: a claim consumes the entry, fulfilled or not.
type Mailbox struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewMailbox creates a mailbox. ttl <= 0 falls back to DefaultTTL.
func NewMailbox(ttl time.Duration) *Mailbox {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Mailbox{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Open registers a new pick request for the given user and returns its
// token. The token is the only handle to the request.
func (m *Mailbox) Open(ownerID primitive.ObjectID) string {
	token := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	m.entries[token] = &entry{
		ownerID:   ownerID,
		expiresAt: m.now().Add(m.ttl),
	}
	return token
}

// Fulfill deposits the picked value. Fulfilling an unknown, expired or
// foreign token fails; fulfilling twice overwrites (the picker screen may
// let the user change their mind before returning).
func (m *Mailbox) Fulfill(token string, ownerID primitive.ObjectID, pick Pick) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.liveEntryLocked(token, ownerID)
	if e == nil {
		return ErrTokenNotFound
	}
	e.pick = &pick
	return nil
}

// Claim returns the fulfilled value and consumes the entry. An unfulfilled
// token is left in place so the owner can poll until the picker returns.
func (m *Mailbox) Claim(token string, ownerID primitive.ObjectID) (*Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.liveEntryLocked(token, ownerID)
	if e == nil {
		return nil, ErrTokenNotFound
	}
	if e.pick == nil {
		return nil, ErrNotFulfilled
	}
	delete(m.entries, token)
	return e.pick, nil
}

// Cancel drops a pending request, fulfilled or not.
func (m *Mailbox) Cancel(token string, ownerID primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.liveEntryLocked(token, ownerID); e != nil {
		delete(m.entries, token)
	}
}

func (m *Mailbox) liveEntryLocked(token string, ownerID primitive.ObjectID) *entry {
	e, ok := m.entries[token]
	if !ok {
		return nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, token)
		return nil
	}
	if e.ownerID != ownerID {
		return nil
	}
	return e
}

// pruneLocked drops expired entries opportunistically on Open.
func (m *Mailbox) pruneLocked() {
	now := m.now()
	for token, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, token)
		}
	}
}
