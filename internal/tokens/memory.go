package tokens

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type tokenEntry struct {
	path      string
	expiresAt time.Time
}

// memoryAuthority is the single-instance token table. A lookup past expiry
// lazily deletes the entry.
type memoryAuthority struct {
	mu     sync.Mutex
	tokens map[string]tokenEntry
	now    func() time.Time
}

func NewMemoryAuthority() Authority {
	return &memoryAuthority{
		tokens: make(map[string]tokenEntry),
		now:    time.Now,
	}
}

func (a *memoryAuthority) Create(path string, ttl time.Duration) (string, error) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	a.mu.Lock()
	a.tokens[token] = tokenEntry{path: path, expiresAt: a.now().Add(ttl)}
	a.mu.Unlock()
	return token, nil
}

func (a *memoryAuthority) Validate(token string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.tokens[token]
	if !ok {
		return "", false
	}
	if a.now().After(entry.expiresAt) {
		delete(a.tokens, token)
		return "", false
	}
	return entry.path, true
}

func (a *memoryAuthority) Revoke(token string) {
	a.mu.Lock()
	delete(a.tokens, token)
	a.mu.Unlock()
}
