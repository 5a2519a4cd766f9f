// SPDX-License-Identifier: MIT

package session

import (
	"sort"
	"sync"
	"time"
)

// DefaultConversationCap bounds the conversation ring.
const DefaultConversationCap = 1000

// ConversationMessage is one line of a single-speaker conversation.
type ConversationMessage struct {
	Content   string
	MessageID string
	Timestamp time.Time
}

// Conversation is a single-speaker history-bearing dialog without audio,
// keyed by a server-generated UUID. Model, system instructions and options
// are fixed at start.
type Conversation struct {
	Key                string
	Model              string
	SystemInstructions string
	Options            map[string]any

	mu        sync.Mutex
	prompts   []ConversationMessage
	responses []ConversationMessage
}

// NewConversation creates an empty conversation.
func NewConversation(key, model, systemInstructions string, options map[string]any) *Conversation {
	return &Conversation{
		Key:                key,
		Model:              model,
		SystemInstructions: systemInstructions,
		Options:            options,
	}
}

// AddPrompt appends a user line.
func (c *Conversation) AddPrompt(content, messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, ConversationMessage{Content: content, MessageID: messageID, Timestamp: time.Now()})
}

// AddResponse appends an assistant line.
func (c *Conversation) AddResponse(content, messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, ConversationMessage{Content: content, MessageID: messageID, Timestamp: time.Now()})
}

// ResponseByID returns the assistant line generated for messageID.
func (c *Conversation) ResponseByID(messageID string) (ConversationMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.responses {
		if r.MessageID == messageID {
			return r, true
		}
	}
	return ConversationMessage{}, false
}

// Dialog merges prompts and responses by timestamp.
func (c *Conversation) Dialog() []DialogMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	type stamped struct {
		at  time.Time
		msg DialogMessage
	}
	all := make([]stamped, 0, len(c.prompts)+len(c.responses))
	for _, m := range c.prompts {
		all = append(all, stamped{m.Timestamp, DialogMessage{Role: RoleUser, Content: m.Content}})
	}
	for _, r := range c.responses {
		all = append(all, stamped{r.Timestamp, DialogMessage{Role: RoleAssistant, Content: r.Content}})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })

	out := make([]DialogMessage, len(all))
	for i, s := range all {
		out[i] = s.msg
	}
	return out
}

// ConversationRing is a bounded registry of conversations. When full, the
// oldest conversation is evicted on insert.
type ConversationRing struct {
	cap int

	mu    sync.Mutex
	order []string
	byKey map[string]*Conversation
}

// NewConversationRing creates a ring bounded to capacity (DefaultConversationCap
// when capacity <= 0).
func NewConversationRing(capacity int) *ConversationRing {
	if capacity <= 0 {
		capacity = DefaultConversationCap
	}
	return &ConversationRing{
		cap:   capacity,
		byKey: make(map[string]*Conversation),
	}
}

// Put inserts a conversation, evicting the oldest entries above capacity.
func (r *ConversationRing) Put(c *Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.order) >= r.cap {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.byKey, oldest)
	}
	r.order = append(r.order, c.Key)
	r.byKey[c.Key] = c
}

// Get returns the conversation for key if it has not been evicted.
func (r *ConversationRing) Get(key string) (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byKey[key]
	return c, ok
}

// Len returns the number of stored conversations.
func (r *ConversationRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
