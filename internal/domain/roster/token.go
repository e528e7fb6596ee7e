package roster

import (
	"sync"

	"github.com/google/uuid"
)

// Tracker hands out a token per roster request and remembers only the most
// recent one, so a response that arrives after a newer request is recognised
// as stale.
type Tracker struct {
	mu           sync.Mutex
	championship string
	token        string
}

// Begin records a new request for championshipID and returns its token.
func (t *Tracker) Begin(championshipID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.championship = championshipID
	t.token = uuid.NewString()
	return t.token
}

// Current reports whether token belongs to the latest request and that
// request was for championshipID.
func (t *Tracker) Current(championshipID, token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return token != "" && token == t.token && championshipID == t.championship
}
