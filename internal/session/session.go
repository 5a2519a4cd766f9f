// SPDX-License-Identifier: MIT

// Package session holds the in-memory registries of dialog sessions,
// conversations and stateless generations. All state lives in this process;
// only generated audio files survive a restart.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Role values of dialog messages as presented to the chat back-end.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// UserMessage is one speaker line submitted by a caller. Immutable once stored.
type UserMessage struct {
	Message   string
	Speaker   string
	MessageID string
	Timestamp time.Time
}

// AssistantResponse is one generated character line. Filename is empty when
// the service runs without a TTS back-end. AudioReadyAt stays zero until the
// audio file is fully written and tagged.
type AssistantResponse struct {
	Text         string
	Character    string
	ResponseID   string
	Filename     string
	Timestamp    time.Time
	AudioReadyAt time.Time
}

// DialogMessage is one role-tagged line of the merged dialog.
type DialogMessage struct {
	Role    string
	Content string
}

// Session is a multi-speaker dialog with audio, keyed by a caller-supplied
// join key. The session's own lock serializes list mutation and the sequence
// counter; provider calls work on a Dialog() snapshot outside the lock.
type Session struct {
	JoinKey string

	mu             sync.Mutex
	createdAt      time.Time
	lastListenedAt time.Time
	userMessages   []UserMessage
	responses      []AssistantResponse
	seq            int
}

// NewSession creates an empty session for the given join key.
func NewSession(joinKey string) *Session {
	now := time.Now()
	return &Session{
		JoinKey:        joinKey,
		createdAt:      now,
		lastListenedAt: now,
	}
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

// Touch refreshes the last-listened timestamp.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastListenedAt = now
	s.mu.Unlock()
}

// LastListenedAt returns the time a listener was last observed on the
// session's mount.
func (s *Session) LastListenedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastListenedAt
}

// ContainsMessageID reports whether a user message with the given ID exists.
// The message ID is the at-most-once key: a duplicate submission is rejected,
// never retried.
func (s *Session) ContainsMessageID(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.userMessages {
		if m.MessageID == messageID {
			return true
		}
	}
	return false
}

// AddUserMessage appends a speaker line. It fails when the message ID is
// already present.
func (s *Session) AddUserMessage(message, speaker, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.userMessages {
		if m.MessageID == messageID {
			return fmt.Errorf("message ID %q already exists in session %q", messageID, s.JoinKey)
		}
	}
	s.userMessages = append(s.userMessages, UserMessage{
		Message:   message,
		Speaker:   speaker,
		MessageID: messageID,
		Timestamp: time.Now(),
	})
	return nil
}

// AddResponse appends a generated line. The filename is allocated before the
// TTS call; AudioReadyAt is set separately once the file is on disk.
func (s *Session) AddResponse(text, character, responseID, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, AssistantResponse{
		Text:       text,
		Character:  character,
		ResponseID: responseID,
		Filename:   filename,
		Timestamp:  time.Now(),
	})
}

// SetAudioReady marks the response's audio as fully written. The transition
// happens exactly once per response.
func (s *Session) SetAudioReady(responseID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.responses {
		if s.responses[i].ResponseID == responseID && s.responses[i].AudioReadyAt.IsZero() {
			s.responses[i].AudioReadyAt = at
			return
		}
	}
}

// ResponseByID returns the response generated for the given message ID.
func (s *Session) ResponseByID(responseID string) (AssistantResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.responses {
		if r.ResponseID == responseID {
			return r, true
		}
	}
	return AssistantResponse{}, false
}

// Responses returns a snapshot of all generated lines.
func (s *Session) Responses() []AssistantResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AssistantResponse, len(s.responses))
	copy(out, s.responses)
	return out
}

// UserMessages returns a snapshot of all speaker lines.
func (s *Session) UserMessages() []UserMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UserMessage, len(s.userMessages))
	copy(out, s.userMessages)
	return out
}

// Dialog merges speaker lines and generated lines sorted by creation
// timestamp. Parallel workers may finish out of arrival order; sorting by
// message timestamp keeps the narrative order intact for subsequent calls.
func (s *Session) Dialog() []DialogMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	type stamped struct {
		at  time.Time
		msg DialogMessage
	}
	all := make([]stamped, 0, len(s.userMessages)+len(s.responses))
	for _, m := range s.userMessages {
		all = append(all, stamped{m.Timestamp, DialogMessage{
			Role:    RoleUser,
			Content: m.Speaker + ": " + m.Message,
		}})
	}
	for _, r := range s.responses {
		all = append(all, stamped{r.Timestamp, DialogMessage{
			Role:    RoleAssistant,
			Content: r.Character + ": " + r.Text,
		}})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })

	out := make([]DialogMessage, len(all))
	for i, s := range all {
		out[i] = s.msg
	}
	return out
}

// NextSequence increments the session's audio counter and returns it as a
// zero-padded string so lexicographic filename order equals temporal order.
// Callers allocate a number only after a successful chat call so failed jobs
// do not burn numbers.
func (s *Session) NextSequence() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("%03d", s.seq)
}

// SequenceCounter returns the current counter value.
func (s *Session) SequenceCounter() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}
