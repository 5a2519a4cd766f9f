// SPDX-License-Identifier: MIT

package session

import (
	"sync"

	"github.com/aitalkmaster/aitalkmaster/internal/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var activeSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "aitalkmaster",
		Name:      "active_sessions",
		Help:      "Number of live dialog sessions",
	},
)

// Hooks connect the store to its collaborators without import cycles. All
// hooks may be nil.
type Hooks struct {
	// OnStart is called when a session is created, to start the broadcaster
	// mount for its join key.
	OnStart func(joinKey string)
	// OnReset is called when a session is reset, to archive its audio files.
	// It must empty the active directory but keep it, so the broadcaster
	// does not lose its mount.
	OnReset func(joinKey string)
}

// Store owns all live session data. Creation resets any prior state for the
// same join key; reset archives files but never stops the mount (stopping
// would interrupt listeners when a new session reuses the key).
type Store struct {
	hooks Hooks

	mu           sync.Mutex
	sessions     map[string]*Session
	finished     []*Session
	translations map[string]*TranslationSession
}

// NewStore creates an empty store.
func NewStore(hooks Hooks) *Store {
	return &Store{
		hooks:        hooks,
		sessions:     make(map[string]*Session),
		translations: make(map[string]*TranslationSession),
	}
}

// Get returns the live session for joinKey if one exists.
func (st *Store) Get(joinKey string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[joinKey]
	return s, ok
}

// GetOrCreate returns the live session for joinKey, creating it after
// archiving any prior state under the same key. Workers call this, not HTTP
// handlers.
func (st *Store) GetOrCreate(joinKey string) *Session {
	st.mu.Lock()
	if s, ok := st.sessions[joinKey]; ok {
		st.mu.Unlock()
		return s
	}
	st.mu.Unlock()

	// Archive whatever a previous run left behind for this key before the
	// fresh session claims the directory.
	st.archiveStale(joinKey)

	s := NewSession(joinKey)

	st.mu.Lock()
	// Another worker may have created the session while the archive hook
	// ran; its messages must not be lost to an overwrite.
	if existing, ok := st.sessions[joinKey]; ok {
		st.mu.Unlock()
		return existing
	}
	st.sessions[joinKey] = s
	n := len(st.sessions)
	st.mu.Unlock()
	activeSessions.Set(float64(n))

	if st.hooks.OnStart != nil {
		st.hooks.OnStart(joinKey)
	}
	logger := log.WithComponent("session")
	logger.Info().
		Str(log.FieldEvent, "session.created").
		Str(log.FieldJoinKey, joinKey).
		Msg("session created")
	return s
}

// archiveStale fires the archive hook for a key that has no live session.
// The create path uses it instead of Reset so a session created concurrently
// is never reset mid-flight.
func (st *Store) archiveStale(joinKey string) {
	st.mu.Lock()
	_, live := st.sessions[joinKey]
	st.mu.Unlock()
	if live {
		return
	}
	if st.hooks.OnReset != nil {
		st.hooks.OnReset(joinKey)
	}
}

// Reset archives the session's audio, moves it to the finished list and
// removes it from the live map. The broadcaster mount keeps running.
func (st *Store) Reset(joinKey string) {
	if st.hooks.OnReset != nil {
		st.hooks.OnReset(joinKey)
	}

	st.mu.Lock()
	s, ok := st.sessions[joinKey]
	if ok {
		st.finished = append(st.finished, s)
		delete(st.sessions, joinKey)
	}
	n := len(st.sessions)
	st.mu.Unlock()
	activeSessions.Set(float64(n))

	if ok {
		logger := log.WithComponent("session")
		logger.Info().
			Str(log.FieldEvent, "session.reset").
			Str(log.FieldJoinKey, joinKey).
			Msg("session reset")
	}
}

// Keys returns the join keys of all live sessions.
func (st *Store) Keys() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	keys := make([]string, 0, len(st.sessions))
	for k := range st.sessions {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// FinishedCount returns the number of archived sessions, for diagnostics.
func (st *Store) FinishedCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.finished)
}
