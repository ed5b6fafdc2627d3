package tokenstore

import (
	"context"
	"os"
	"sync"

	"invest_backend/internal/platform/externalapi/kite"
)

// EnvStore is an in-process kite.TokenSource seeded from environment
// variables. It backs deployments without Redis; rotated tokens survive only
// for the process lifetime.
type EnvStore struct {
	mu     sync.Mutex
	creds  kite.Credentials
	loaded bool
}

// インターフェース実装の確認
var _ kite.TokenSource = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore. Credentials are read lazily on first Get.
func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

// Get returns the credential bundle, loading KITE_* variables once.
func (s *EnvStore) Get(_ context.Context) (kite.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.creds = kite.Credentials{
			APIKey:       os.Getenv("KITE_API_KEY"),
			APISecret:    os.Getenv("KITE_API_SECRET"),
			AccessToken:  os.Getenv("KITE_ACCESS_TOKEN"),
			RefreshToken: os.Getenv("KITE_REFRESH_TOKEN"),
		}
		s.loaded = true
	}

	if s.creds.APIKey == "" {
		return kite.Credentials{}, ErrCredentialsNotFound
	}
	return s.creds, nil
}

// Put replaces the in-memory bundle.
func (s *EnvStore) Put(_ context.Context, creds kite.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.loaded = true
	return nil
}
