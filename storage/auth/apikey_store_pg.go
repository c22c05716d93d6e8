package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"agentbounty-backend/core/bounty"
)

func generateSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func hashKey(key, salt string) string {
	h := sha256.New()
	h.Write([]byte(salt + key))
	return hex.EncodeToString(h.Sum(nil))
}

func encodeKeyHash(salt, hash string) string {
	return base64.URLEncoding.EncodeToString([]byte(salt + ":" + hash))
}

func decodeKeyHash(encoded string) (salt, hash string, err error) {
	decoded, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("decode key hash: %w", err)
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid key hash format")
	}
	return parts[0], parts[1], nil
}

// PGAPIKeyStore persists API keys in Postgres. Keys are stored salted and
// hashed; the plain key only exists in the issue response.
type PGAPIKeyStore struct {
	pool *pgxpool.Pool
}

// NewPGAPIKeyStore connects and initializes schema.
func NewPGAPIKeyStore(ctx context.Context, dsn string) (*PGAPIKeyStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &PGAPIKeyStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGAPIKeyStore) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS api_keys (
  key_hash   TEXT PRIMARY KEY,
  principal  BYTEA NOT NULL,
  label      TEXT,
  source     TEXT,
  created_at TIMESTAMPTZ DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_api_keys_principal ON api_keys(principal);
`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close shuts down the pool.
func (s *PGAPIKeyStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Validate implements APIKeyValidator.
func (s *PGAPIKeyStore) Validate(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Get returns the API key record for the provided key.
func (s *PGAPIKeyStore) Get(key string) (APIKey, bool) {
	if key == "" {
		return APIKey{}, false
	}
	rows, err := s.pool.Query(context.Background(),
		`SELECT key_hash, principal, label, source, created_at FROM api_keys`)
	if err != nil {
		return APIKey{}, false
	}
	defer rows.Close()

	for rows.Next() {
		var encoded string
		var principal []byte
		var label, source *string
		var createdAt time.Time
		if err := rows.Scan(&encoded, &principal, &label, &source, &createdAt); err != nil {
			continue
		}
		salt, hash, err := decodeKeyHash(encoded)
		if err != nil {
			continue
		}
		if hashKey(key, salt) != hash {
			continue
		}
		rec := APIKey{Key: key, CreatedAt: createdAt}
		copy(rec.Principal[:], principal)
		if label != nil {
			rec.Label = *label
		}
		if source != nil {
			rec.Source = *source
		}
		return rec, true
	}
	return APIKey{}, false
}

// Seed stores a pre-existing key idempotently under a fixed salt derived
// from the key itself, so restarts do not duplicate the row.
func (s *PGAPIKeyStore) Seed(key string, principal bounty.Principal, source string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	salt := hex.EncodeToString([]byte("seed"))
	encoded := encodeKeyHash(salt, hashKey(key, salt))
	_, _ = s.pool.Exec(context.Background(), `
INSERT INTO api_keys (key_hash, principal, source) VALUES ($1, $2, $3)
ON CONFLICT (key_hash) DO NOTHING
`, encoded, principal[:], source)
}

// Issue creates and stores a new API key bound to the principal.
func (s *PGAPIKeyStore) Issue(principal bounty.Principal, label, source string) (APIKey, error) {
	if principal.IsZero() {
		return APIKey{}, fmt.Errorf("principal required")
	}
	key, err := generateKey()
	if err != nil {
		return APIKey{}, err
	}
	salt, err := generateSalt()
	if err != nil {
		return APIKey{}, err
	}
	encoded := encodeKeyHash(salt, hashKey(key, salt))
	rec := APIKey{Key: key, Principal: principal, Label: label, Source: source, CreatedAt: time.Now()}
	_, err = s.pool.Exec(context.Background(), `
INSERT INTO api_keys (key_hash, principal, label, source, created_at) VALUES ($1, $2, $3, $4, $5)
`, encoded, principal[:], label, source, rec.CreatedAt)
	if err != nil {
		return APIKey{}, err
	}
	return rec, nil
}
