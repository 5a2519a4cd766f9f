// SPDX-License-Identifier: MIT

package session

import (
	"fmt"
	"sync"
	"time"
)

// TranslationResult is one completed translation of a translation session.
type TranslationResult struct {
	MessageID       string
	OriginalMessage string
	TranslatedText  string
	SourceLanguage  string
	TargetLanguage  string
	Timestamp       time.Time
}

// TranslationSession tracks the translations and the audio sequence counter
// of one translation stream, keyed by a caller-supplied session key.
type TranslationSession struct {
	SessionKey string

	mu           sync.Mutex
	createdAt    time.Time
	translations []TranslationResult
	seq          int
}

// NewTranslationSession creates an empty translation session.
func NewTranslationSession(sessionKey string) *TranslationSession {
	return &TranslationSession{SessionKey: sessionKey, createdAt: time.Now()}
}

// ContainsMessageID reports whether a translation with the given ID exists.
func (t *TranslationSession) ContainsMessageID(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tr := range t.translations {
		if tr.MessageID == messageID {
			return true
		}
	}
	return false
}

// Add stores a completed translation. The duplicate check happens under the
// same lock as the append, so two in-flight workers cannot both record the
// same message ID.
func (t *TranslationSession) Add(result TranslationResult) error {
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tr := range t.translations {
		if tr.MessageID == result.MessageID {
			return fmt.Errorf("message ID %q already exists in translation session %q", result.MessageID, t.SessionKey)
		}
	}
	t.translations = append(t.translations, result)
	return nil
}

// Get returns the translation for messageID.
func (t *TranslationSession) Get(messageID string) (TranslationResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tr := range t.translations {
		if tr.MessageID == messageID {
			return tr, true
		}
	}
	return TranslationResult{}, false
}

// NextSequence increments the session's audio counter, zero-padded as with
// dialog sessions.
func (t *TranslationSession) NextSequence() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	return fmt.Sprintf("%03d", t.seq)
}

// GetOrCreateTranslation returns the translation session for sessionKey,
// creating it if needed. onStart is called exactly once per created session,
// to start the translation mount.
func (st *Store) GetOrCreateTranslation(sessionKey string, onStart func(string)) *TranslationSession {
	st.mu.Lock()
	if t, ok := st.translations[sessionKey]; ok {
		st.mu.Unlock()
		return t
	}
	t := NewTranslationSession(sessionKey)
	st.translations[sessionKey] = t
	st.mu.Unlock()

	if onStart != nil {
		onStart(sessionKey)
	}
	return t
}

// Translation returns the translation session for sessionKey if one exists.
func (st *Store) Translation(sessionKey string) (*TranslationSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	t, ok := st.translations[sessionKey]
	return t, ok
}
