package models

import (
	"time"
)

// Message represents a single chat-completions message sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat message roles stored in per-problem history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// QueryRequest is the inbound question payload from the extension.
type QueryRequest struct {
	Site             string `json:"site"`
	ProblemTitle     string `json:"problem_title,omitempty"`
	ProblemStatement string `json:"problem_statement,omitempty"`
	UserCode         string `json:"user_code,omitempty"`
	Language         string `json:"language,omitempty"`
	Question         string `json:"question"`
	Format           string `json:"format,omitempty"` // "html" to render the answer
}

// QueryResponse is the answer payload returned to the extension.
type QueryResponse struct {
	Answer    string `json:"answer"`
	AgentUsed string `json:"agent_used"`
	Intent    string `json:"intent"`
}

// StreamChunk is one SSE event on the streaming endpoint.
type StreamChunk struct {
	Token     string `json:"token"`
	Done      bool   `json:"done"`
	AgentUsed string `json:"agent_used,omitempty"`
	Intent    string `json:"intent,omitempty"`
}

// HintEntry is one hint issued for a problem. Entries are immutable once
// written and only removed by resetting the whole problem.
type HintEntry struct {
	Number    int       `json:"hint_number"`
	Text      string    `json:"hint_text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is one turn of the bounded per-problem conversation window.
// AgentUsed is empty for user turns.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	AgentUsed string    `json:"agent_used"`
	CreatedAt time.Time `json:"created_at"`
}

// CacheEntry represents a cached answer for a stateless question.
type CacheEntry struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}
