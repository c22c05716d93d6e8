package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"agentbounty-backend/core/bounty"
)

// Challenge represents a pending agent registration handshake.
type Challenge struct {
	Nonce       string           `json:"nonce"`
	Principal   bounty.Principal `json:"principal"`
	ExpiresAt   time.Time        `json:"expires_at"`
	CreatedAt   time.Time        `json:"created_at"`
	Attempts    int              `json:"attempts"`
	MaxAttempts int              `json:"max_attempts"`
}

// ChallengeStore keeps in-memory challenges (sufficient for current needs; can be swapped for Postgres).
type ChallengeStore struct {
	mu         sync.Mutex
	ttl        time.Duration
	challenges map[bounty.Principal]Challenge
}

// NewChallengeStore builds a new in-memory challenge store.
func NewChallengeStore(ttl time.Duration) *ChallengeStore {
	return &ChallengeStore{
		ttl:        ttl,
		challenges: make(map[bounty.Principal]Challenge),
	}
}

// Issue creates or refreshes a challenge for a principal.
func (s *ChallengeStore) Issue(principal bounty.Principal) (Challenge, error) {
	nonce, err := randomNonce()
	if err != nil {
		return Challenge{}, err
	}
	ch := Challenge{
		Nonce:       nonce,
		Principal:   principal,
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(s.ttl),
		MaxAttempts: 5,
	}
	s.mu.Lock()
	s.challenges[principal] = ch
	s.mu.Unlock()
	return ch, nil
}

// Verify checks the response against the outstanding nonce and consumes the
// challenge on success.
// NOTE: accepts response == nonce for now; replace with ed25519 signature
// verification once agents carry real keypairs.
func (s *ChallengeStore) Verify(principal bounty.Principal, response string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[principal]
	if !ok {
		return false
	}
	if time.Now().After(ch.ExpiresAt) {
		delete(s.challenges, principal)
		return false
	}
	ch.Attempts++
	if ch.Attempts > ch.MaxAttempts {
		delete(s.challenges, principal)
		return false
	}
	if response != ch.Nonce {
		s.challenges[principal] = ch
		return false
	}
	delete(s.challenges, principal)
	return true
}

func randomNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
