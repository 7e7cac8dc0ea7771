package history

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cp-ai-assist-go/internal/models"
	"github.com/sirupsen/logrus"
)

// NoConversation is the transcript returned for a problem with no recorded
// messages yet. Prompts rely on this exact sentinel.
const NoConversation = "No previous conversation."

// ChatStore keeps a bounded FIFO window of conversation turns per problem
// key. Once the window is full the oldest message is evicted on append.
type ChatStore struct {
	mu          sync.RWMutex
	entries     map[string]*chatWindow
	maxMessages int
	logger      *logrus.Logger
}

type chatWindow struct {
	mu       sync.Mutex
	messages []models.ChatMessage
}

// NewChatStore creates an empty chat store holding at most maxMessages
// turns per key.
func NewChatStore(maxMessages int, logger *logrus.Logger) *ChatStore {
	if maxMessages <= 0 {
		maxMessages = 15
	}
	return &ChatStore{
		entries:     make(map[string]*chatWindow),
		maxMessages: maxMessages,
		logger:      logger,
	}
}

// History returns the stored window for a key, oldest first. The returned
// slice is a copy.
func (s *ChatStore) History(key string) []models.ChatMessage {
	s.mu.RLock()
	w, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]models.ChatMessage, len(w.messages))
	copy(out, w.messages)
	return out
}

// Add appends a message, evicting the oldest turn when the window is full.
// agentUsed is empty for user messages.
func (s *ChatStore) Add(key, role, content, agentUsed string) {
	w := s.getOrCreate(key)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.messages = append(w.messages, models.ChatMessage{
		Role:      role,
		Content:   content,
		AgentUsed: agentUsed,
		CreatedAt: time.Now().UTC(),
	})
	if len(w.messages) > s.maxMessages {
		evicted := len(w.messages) - s.maxMessages
		w.messages = append(w.messages[:0:0], w.messages[evicted:]...)
		s.logger.WithFields(logrus.Fields{
			"key":     key,
			"evicted": evicted,
		}).Debug("Chat window full, evicted oldest messages")
	}
}

// FormatForPrompt renders the window as a transcript usable inside a prompt,
// annotating assistant turns with the agent that produced them.
func (s *ChatStore) FormatForPrompt(key string) string {
	messages := s.History(key)
	if len(messages) == 0 {
		return NoConversation
	}

	formatted := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == models.RoleUser {
			formatted = append(formatted, fmt.Sprintf("User: %s", msg.Content))
			continue
		}
		agentInfo := ""
		if msg.AgentUsed != "" {
			agentInfo = fmt.Sprintf(" (via %s)", msg.AgentUsed)
		}
		formatted = append(formatted, fmt.Sprintf("Assistant%s: %s", agentInfo, msg.Content))
	}

	return strings.Join(formatted, "\n\n")
}

// Clear deletes the chat history for a key. No-op if the key is unseen.
func (s *ChatStore) Clear(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *ChatStore) getOrCreate(key string) *chatWindow {
	s.mu.RLock()
	w, exists := s.entries[key]
	s.mu.RUnlock()

	if exists {
		return w
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if w, exists := s.entries[key]; exists {
		return w
	}

	w = &chatWindow{}
	s.entries[key] = w
	return w
}
