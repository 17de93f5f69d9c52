package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	ErrStateNotFound   = errors.New("session state not found")
	ErrNilSessionState = errors.New("session state is nil")
	ErrInvalidSession  = errors.New("session id is empty")
	ErrVersionConflict = errors.New("session state version conflict")
)

const (
	defaultStoreKeyPrefix = "bank:session:"
	defaultStoreTTL       = 24 * time.Hour
)

// Store is the persistence contract used by the orchestrator's callers.
// Save is a compare-and-set: the stored version must still be the one st was
// loaded from, and st.Version must be newer.
type Store interface {
	Load(ctx context.Context, sessionID string) (*SessionState, error)
	Save(ctx context.Context, st *SessionState) error
	Delete(ctx context.Context, sessionID string) error
}

type StoreConfig struct {
	Backend   string        `envconfig:"BACKEND" default:"memory"`
	RedisURL  string        `split_words:"true"`
	KeyPrefix string        `split_words:"true" default:"bank:session:"`
	TTL       time.Duration `envconfig:"TTL" default:"24h"`
}

// MemoryStore keeps encoded sessions in process.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	versions map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		versions: make(map[string]int64),
	}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*SessionState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	s.mu.Lock()
	raw, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	return decodeState(raw)
}

func (s *MemoryStore) Save(_ context.Context, st *SessionState) error {
	payload, err := encodeState(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.versions[st.SessionID]; ok {
		if err := checkVersion(cur, st); err != nil {
			return err
		}
	}
	s.sessions[st.SessionID] = payload
	s.versions[st.SessionID] = st.Version
	st.baseVersion = st.Version
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	delete(s.versions, sessionID)
	s.mu.Unlock()
	return nil
}

func checkVersion(stored int64, st *SessionState) error {
	if stored != st.baseVersion {
		return fmt.Errorf("%w: stored=%d loaded=%d", ErrVersionConflict, stored, st.baseVersion)
	}
	if st.Version <= stored {
		return fmt.Errorf("%w: stored=%d incoming=%d", ErrVersionConflict, stored, st.Version)
	}
	return nil
}

func encodeState(st *SessionState) ([]byte, error) {
	if st == nil {
		return nil, ErrNilSessionState
	}
	if strings.TrimSpace(st.SessionID) == "" {
		return nil, ErrInvalidSession
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	} else {
		st.UpdatedAt = st.UpdatedAt.UTC()
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal session state: %w", err)
	}
	return payload, nil
}

func decodeState(raw []byte) (*SessionState, error) {
	var st SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session state loaded from store: %w", err)
	}
	st.baseVersion = st.Version
	return &st, nil
}
