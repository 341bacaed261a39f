package ops

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/clinicseo/internal/clinic"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// DefaultSession is used when a caller does not name a session.
const DefaultSession = "default"

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Session is a normalized session key together with the caller's spelling.
type Session struct {
	Raw  string
	Norm string
}

// ResolveSession normalizes a session key, defaulting to "default".
func ResolveSession(s string) Session {
	norm := clinic.Normalize(s)
	if norm == "" {
		return Session{Raw: DefaultSession, Norm: DefaultSession}
	}
	return Session{Raw: s, Norm: norm}
}

// Shared monotonic entropy keeps IDs minted in the same millisecond ordered,
// which List relies on as a tiebreak.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewSessionID returns a fresh ULID for web sessions.
func NewSessionID() (string, error) {
	return generateULID()
}
