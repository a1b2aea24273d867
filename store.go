package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SessionStore is the key-value persistence boundary. Semantics are
// deliberately thin: whole-record reads and last-write-wins whole-record
// writes, no transactions, no locking. The engine copes by re-reading
// immediately before every merge (see submitSelection).
type SessionStore interface {
	// Create persists a fresh session, failing with ErrDuplicateKey if
	// the key is already taken.
	Create(ctx context.Context, sess *Session) error
	// Read returns the record at key, or ErrSessionNotFound.
	Read(ctx context.Context, key string) (*Session, error)
	// Write fully replaces the record at key.
	Write(ctx context.Context, key string, sess *Session) error
	// Delete removes the record at key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// dateFinder is implemented by backends that can look sessions up by
// date. The blob backend can't list cheaply and skips it.
type dateFinder interface {
	FindByDate(ctx context.Context, date string) (*Session, error)
}

// newSessionStore builds the backend selected by --store.
func newSessionStore(ctx context.Context, cfg *Config) (SessionStore, error) {
	switch cfg.store {
	case "memory":
		return newMemoryStore(cfg.sessionTTL), nil
	case "sqlite":
		return openSqliteStore(cfg.sqlitePath)
	case "s3":
		return newS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.store)
	}
}

// memoryStore keeps session records in a mutex-guarded map scoped to the
// process lifetime. Non-durable: a restart loses every session. Records
// are held marshaled so reads hand out independent copies.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	touched  map[string]time.Time
}

func newMemoryStore(ttl time.Duration) *memoryStore {
	m := &memoryStore{
		sessions: make(map[string][]byte),
		touched:  make(map[string]time.Time),
	}
	if ttl > 0 {
		go m.reaperLoop(ttl)
	}
	return m
}

func (m *memoryStore) Create(_ context.Context, sess *Session) error {
	data, err := marshalSession(sess)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sess.Code]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, sess.Code)
	}
	m.sessions[sess.Code] = data
	m.touched[sess.Code] = time.Now()

	return nil
}

func (m *memoryStore) Read(_ context.Context, key string) (*Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	return unmarshalSession(data)
}

func (m *memoryStore) Write(_ context.Context, key string, sess *Session) error {
	data, err := marshalSession(sess)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[key] = data
	m.touched[key] = time.Now()

	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, key)
	delete(m.touched, key)

	return nil
}

func (m *memoryStore) FindByDate(_ context.Context, date string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		best     *Session
		bestTime time.Time
	)
	for _, data := range m.sessions {
		sess, err := unmarshalSession(data)
		if err != nil || sess.Date != date {
			continue
		}
		if best == nil || sess.CreatedAt.After(bestTime) {
			best = sess
			bestTime = sess.CreatedAt
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no session for date %s", ErrSessionNotFound, date)
	}
	return best, nil
}

func (m *memoryStore) Close() error {
	return nil
}

// reaperLoop periodically drops sessions that have gone untouched longer
// than ttl.
func (m *memoryStore) reaperLoop(ttl time.Duration) {
	ticker := time.NewTicker(ttl / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-ttl)

		m.mu.Lock()
		for key, last := range m.touched {
			if last.Before(cutoff) {
				delete(m.sessions, key)
				delete(m.touched, key)
			}
		}
		m.mu.Unlock()
	}
}
