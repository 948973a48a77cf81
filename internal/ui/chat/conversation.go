package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role tells who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	titleLength  = 30
	defaultTitle = "New conversation"
)

// SuggestedPrompts are offered while the conversation is empty.
var SuggestedPrompts = []string{
	"How can I reduce my anxiety?",
	"What are the benefits of meditation?",
	"Tips for better sleep",
	"How to start a mindfulness practice?",
}

// Message is one entry of the transcript.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Conversation is an append-only transcript safe for use from the UI and
// request goroutines. Its id is sent upstream as the chat history key.
type Conversation struct {
	mu       sync.Mutex
	id       string
	now      func() time.Time
	title    string
	messages []Message
}

// NewConversation creates an empty conversation with a fresh id.
func NewConversation() *Conversation {
	return &Conversation{id: uuid.NewString(), now: time.Now, title: defaultTitle}
}

// ID returns the conversation id.
func (conversation *Conversation) ID() string {
	return conversation.id
}

// Add appends a message and returns its index. The first message names
// the conversation.
func (conversation *Conversation) Add(role Role, content string) int {
	conversation.mu.Lock()
	defer conversation.mu.Unlock()
	if len(conversation.messages) == 0 {
		conversation.title = titleFrom(content)
	}
	conversation.messages = append(conversation.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: conversation.now(),
	})
	return len(conversation.messages) - 1
}

// Len returns the number of messages.
func (conversation *Conversation) Len() int {
	conversation.mu.Lock()
	defer conversation.mu.Unlock()
	return len(conversation.messages)
}

// At returns the message at index.
func (conversation *Conversation) At(index int) (Message, bool) {
	conversation.mu.Lock()
	defer conversation.mu.Unlock()
	if index < 0 || index >= len(conversation.messages) {
		return Message{}, false
	}
	return conversation.messages[index], true
}

// Title returns the conversation title.
func (conversation *Conversation) Title() string {
	conversation.mu.Lock()
	defer conversation.mu.Unlock()
	return conversation.title
}

// Library is the ordered list of conversations and the active one. It
// always holds at least one conversation.
type Library struct {
	mu            sync.Mutex
	conversations []*Conversation
	active        int
}

// NewLibrary creates a library holding one empty conversation.
func NewLibrary() *Library {
	return &Library{conversations: []*Conversation{NewConversation()}}
}

// Len returns the number of conversations.
func (library *Library) Len() int {
	library.mu.Lock()
	defer library.mu.Unlock()
	return len(library.conversations)
}

// At returns the conversation at index.
func (library *Library) At(index int) (*Conversation, bool) {
	library.mu.Lock()
	defer library.mu.Unlock()
	if index < 0 || index >= len(library.conversations) {
		return nil, false
	}
	return library.conversations[index], true
}

// Active returns the selected conversation.
func (library *Library) Active() *Conversation {
	library.mu.Lock()
	defer library.mu.Unlock()
	return library.conversations[library.active]
}

// ActiveIndex returns the position of the selected conversation.
func (library *Library) ActiveIndex() int {
	library.mu.Lock()
	defer library.mu.Unlock()
	return library.active
}

// Contains reports whether conversation is still in the library.
func (library *Library) Contains(conversation *Conversation) bool {
	library.mu.Lock()
	defer library.mu.Unlock()
	return library.indexLocked(conversation.ID()) >= 0
}

// Create appends an empty conversation and selects it.
func (library *Library) Create() *Conversation {
	library.mu.Lock()
	defer library.mu.Unlock()
	conversation := NewConversation()
	library.conversations = append(library.conversations, conversation)
	library.active = len(library.conversations) - 1
	return conversation
}

// Select makes the conversation with id active.
func (library *Library) Select(id string) bool {
	library.mu.Lock()
	defer library.mu.Unlock()
	index := library.indexLocked(id)
	if index < 0 {
		return false
	}
	library.active = index
	return true
}

// Delete removes the conversation with id. The last conversation cannot be
// deleted. Deleting the active conversation selects the first one.
func (library *Library) Delete(id string) bool {
	library.mu.Lock()
	defer library.mu.Unlock()
	index := library.indexLocked(id)
	if index < 0 || len(library.conversations) == 1 {
		return false
	}
	activeID := library.conversations[library.active].ID()
	library.conversations = append(library.conversations[:index], library.conversations[index+1:]...)
	library.active = library.indexLocked(activeID)
	if library.active < 0 {
		library.active = 0
	}
	return true
}

func (library *Library) indexLocked(id string) int {
	for index, conversation := range library.conversations {
		if conversation.ID() == id {
			return index
		}
	}
	return -1
}

func titleFrom(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= titleLength {
		return content
	}
	return string(runes[:titleLength]) + "..."
}

func (message Message) speaker() string {
	if message.Role == RoleUser {
		return "You"
	}
	return "Companion"
}
