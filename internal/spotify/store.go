package spotify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
)

// Persistence keys written through a [Persister].
const (
	KeyAccessToken      = "access_token"
	KeyAccessExpires    = "access_expires"
	KeyRefreshToken     = "refresh_token"
	KeyScope            = "scope"
	KeyCSRFToken        = "csrf_token"
	KeyCodeVerifier     = "code_verifier"
	KeyPendingCreatedAt = "pending_created_at"
)

var (
	credentialKeys = []string{KeyAccessToken, KeyAccessExpires, KeyRefreshToken, KeyScope}
	pendingKeys    = []string{KeyCSRFToken, KeyCodeVerifier, KeyPendingCreatedAt}
)

// Persister stores string values by key outside the process. Implementations must be
// safe for concurrent use.
type Persister interface {
	Save(ctx context.Context, key, value string) error
	// Load returns ok=false when the key is absent.
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// Store is the process-wide holder of the current [Credential] and [PendingAuthorization].
//
// Readers never observe a partially written credential: the in-memory swap and the
// persistence writes happen under the same write lock.
type Store struct {
	mu         sync.RWMutex
	credential *Credential
	pending    *PendingAuthorization
	persister  Persister
}

// NewStore creates a Store. p may be nil for a memory-only store.
func NewStore(p Persister) *Store {
	return &Store{persister: p}
}

// Get returns a copy of the current credential.
func (s *Store) Get() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.credential == nil {
		return Credential{}, false
	}
	return *s.credential, true
}

// Set replaces the current credential.
func (s *Store) Set(ctx context.Context, c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred := c
	s.credential = &cred

	if s.persister == nil {
		return nil
	}

	values := map[string]string{
		KeyAccessToken:   c.AccessToken,
		KeyAccessExpires: formatMillis(c.ExpiresAt),
		KeyRefreshToken:  c.RefreshToken,
		KeyScope:         c.Scope,
	}
	for _, key := range credentialKeys {
		if values[key] == "" {
			if err := s.persister.Delete(ctx, key); err != nil {
				return fmt.Errorf("%w: delete %s: %v", shared.ErrStorage, key, err)
			}
			continue
		}
		if err := s.persister.Save(ctx, key, values[key]); err != nil {
			return fmt.Errorf("%w: save %s: %v", shared.ErrStorage, key, err)
		}
	}
	return nil
}

// Clear removes the credential and any pending authorization.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credential = nil
	s.pending = nil
	return s.deleteKeys(ctx, append(credentialKeys, pendingKeys...))
}

// SetPending records a new pending authorization, discarding any earlier one.
func (s *Store) SetPending(ctx context.Context, p PendingAuthorization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := p
	s.pending = &pending

	if s.persister == nil {
		return nil
	}

	values := map[string]string{
		KeyCSRFToken:        p.State,
		KeyCodeVerifier:     p.CodeVerifier,
		KeyPendingCreatedAt: formatMillis(p.CreatedAt),
	}
	for _, key := range pendingKeys {
		if values[key] == "" {
			if err := s.persister.Delete(ctx, key); err != nil {
				return fmt.Errorf("%w: delete %s: %v", shared.ErrStorage, key, err)
			}
			continue
		}
		if err := s.persister.Save(ctx, key, values[key]); err != nil {
			return fmt.Errorf("%w: save %s: %v", shared.ErrStorage, key, err)
		}
	}
	return nil
}

// Pending returns the pending authorization, if one exists.
func (s *Store) Pending() (PendingAuthorization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pending == nil {
		return PendingAuthorization{}, false
	}
	return *s.pending, true
}

// ClearPending discards the pending authorization.
func (s *Store) ClearPending(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	return s.deleteKeys(ctx, pendingKeys)
}

// Restore reloads the credential and pending authorization from the persister,
// replacing whatever is held in memory. Without a persister it is a no-op.
func (s *Store) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[string]string)
	for _, key := range append(credentialKeys, pendingKeys...) {
		v, ok, err := s.persister.Load(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: load %s: %v", shared.ErrStorage, key, err)
		}
		if ok {
			values[key] = v
		}
	}

	s.credential = nil
	if token := values[KeyAccessToken]; token != "" {
		expires, err := parseMillis(values[KeyAccessExpires])
		if err != nil {
			return fmt.Errorf("%w: %s: %v", shared.ErrStorage, KeyAccessExpires, err)
		}
		s.credential = &Credential{
			AccessToken:  token,
			ExpiresAt:    expires,
			RefreshToken: values[KeyRefreshToken],
			Scope:        values[KeyScope],
		}
	}

	s.pending = nil
	if state := values[KeyCSRFToken]; state != "" {
		created, err := parseMillis(values[KeyPendingCreatedAt])
		if err != nil {
			return fmt.Errorf("%w: %s: %v", shared.ErrStorage, KeyPendingCreatedAt, err)
		}
		s.pending = &PendingAuthorization{
			State:        state,
			CodeVerifier: values[KeyCodeVerifier],
			CreatedAt:    created,
		}
	}

	return nil
}

// deleteKeys must be called with the write lock held.
func (s *Store) deleteKeys(ctx context.Context, keys []string) error {
	if s.persister == nil {
		return nil
	}

	var errs []error
	for _, key := range keys {
		if err := s.persister.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	return nil
}

func formatMillis(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

// MemoryPersister is a map-backed [Persister].
type MemoryPersister struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryPersister returns an empty MemoryPersister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{values: make(map[string]string)}
}

func (m *MemoryPersister) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryPersister) Load(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryPersister) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryPersister) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
