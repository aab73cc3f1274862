package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"scribe/internal/broadcast"
	"scribe/internal/logging"
	"scribe/internal/storage"
)

// Durable storage keys.
const (
	CredentialKey = "auth_token"
	IdentityKey   = "user"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger routes store diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is the single source of truth for the current credential and identity.
type Store struct {
	storage storage.Storage
	logger  *slog.Logger

	// writeMu serializes mutations together with their broadcast so a
	// subscriber never sees the state of one call paired with another's.
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   State
	hub     broadcast.Hub[State]
}

// New constructs an anonymous Store over backing storage. Call Restore to
// load persisted state.
func New(backing storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: backing,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "session")
	return s
}

// Restore loads the credential and identity from durable storage. A corrupt
// identity is discarded; storage I/O errors are returned.
func (s *Store) Restore() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	credential, _, err := s.storage.Get(CredentialKey)
	if err != nil {
		return fmt.Errorf("restore credential: %w", err)
	}
	identity, err := s.loadIdentity()
	if err != nil {
		return fmt.Errorf("restore identity: %w", err)
	}

	next := newState(identity, credential)
	s.mu.Lock()
	changed := !(s.state.anonymous() && next.anonymous())
	s.state = next
	s.mu.Unlock()

	if next.Authenticated {
		s.logger.Debug("session restored", logging.String("email", identityEmail(identity)))
	}
	if changed {
		s.hub.Publish(next)
	}
	return nil
}

// SetSession persists identity and credential and broadcasts the new state.
// A nil identity or empty credential removes the corresponding storage key.
func (s *Store) SetSession(identity *Identity, credential string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.setLocked(identity, credential, true)
}

// ClearSession returns the store to the anonymous state. Repeated calls are
// harmless: storage keys are removed again but no duplicate state is
// broadcast.
func (s *Store) ClearSession() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	alreadyAnonymous := s.state.anonymous()
	s.mu.RUnlock()

	return s.setLocked(nil, "", !alreadyAnonymous)
}

func (s *Store) setLocked(identity *Identity, credential string, publish bool) error {
	if err := s.persist(identity, credential); err != nil {
		return err
	}

	next := newState(identity, credential)
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if publish {
		s.hub.Publish(next)
	}
	return nil
}

func (s *Store) persist(identity *Identity, credential string) error {
	if credential != "" {
		if err := s.storage.Set(CredentialKey, credential); err != nil {
			return fmt.Errorf("persist credential: %w", err)
		}
	} else if err := s.storage.Remove(CredentialKey); err != nil {
		return fmt.Errorf("remove credential: %w", err)
	}

	if identity != nil {
		data, err := json.Marshal(identity)
		if err != nil {
			return fmt.Errorf("encode identity: %w", err)
		}
		if err := s.storage.Set(IdentityKey, string(data)); err != nil {
			return fmt.Errorf("persist identity: %w", err)
		}
	} else if err := s.storage.Remove(IdentityKey); err != nil {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}

// Credential returns the in-memory credential, falling back to durable
// storage when none is cached. An empty string means anonymous.
func (s *Store) Credential() string {
	s.mu.RLock()
	credential := s.state.Credential
	s.mu.RUnlock()
	if credential != "" {
		return credential
	}

	stored, ok, err := s.storage.Get(CredentialKey)
	if err != nil {
		s.logger.Warn("credential lookup failed", logging.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return stored
}

// Identity returns the in-memory identity, falling back to durable storage.
// The returned value is a copy.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	identity := s.state.Identity.clone()
	s.mu.RUnlock()
	if identity != nil {
		return identity
	}

	stored, err := s.loadIdentity()
	if err != nil {
		s.logger.Warn("identity lookup failed", logging.Error(err))
		return nil
	}
	return stored
}

// IsAuthenticated reports the cached flag. When the cache says anonymous but
// storage holds a credential written by another path, the store rehydrates
// from storage and reports true.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	authenticated := s.state.Authenticated
	s.mu.RUnlock()
	if authenticated {
		return true
	}

	credential, ok, err := s.storage.Get(CredentialKey)
	if err != nil {
		s.logger.Warn("credential lookup failed", logging.Error(err))
		return false
	}
	if !ok || credential == "" {
		return false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.RLock()
	authenticated = s.state.Authenticated
	s.mu.RUnlock()
	if authenticated {
		return true
	}
	identity, err := s.loadIdentity()
	if err != nil {
		s.logger.Warn("identity lookup failed during rehydrate", logging.Error(err))
	}
	if err := s.setLocked(identity, credential, true); err != nil {
		s.logger.Warn("session rehydrate failed", logging.Error(err))
		return false
	}
	s.logger.Debug("session rehydrated from storage")
	return true
}

// IsAdmin reports whether the current identity carries the admin role.
func (s *Store) IsAdmin() bool {
	identity := s.Identity()
	return identity != nil && identity.Role == RoleAdmin
}

// State returns a snapshot of the session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newState(s.state.Identity, s.state.Credential)
}

// Subscribe registers fn for every state change. Delivery is synchronous on
// the mutating goroutine and fn must not mutate the store. The returned
// function unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.hub.Subscribe(fn)
}

// loadIdentity decodes the stored identity. A value that does not decode is
// removed from storage and reported as absent.
func (s *Store) loadIdentity() (*Identity, error) {
	raw, ok, err := s.storage.Get(IdentityKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var identity *Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		s.logger.Warn("discarding corrupt stored identity",
			logging.Error(err),
			logging.Alert("corrupt_identity"),
		)
		if removeErr := s.storage.Remove(IdentityKey); removeErr != nil {
			s.logger.Warn("remove corrupt identity failed", logging.Error(removeErr))
		}
		return nil, nil
	}
	return identity, nil
}

func identityEmail(identity *Identity) string {
	if identity == nil {
		return ""
	}
	return identity.Email
}
