package history

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cp-ai-assist-go/internal/models"
)

func TestChatStoreUnseenKey(t *testing.T) {
	store := NewChatStore(15, testLogger())
	key := Key("leetcode", "Two Sum")

	if got := store.History(key); len(got) != 0 {
		t.Errorf("History for unseen key = %v, want empty", got)
	}
	if got := store.FormatForPrompt(key); got != NoConversation {
		t.Errorf("FormatForPrompt for unseen key = %q, want %q", got, NoConversation)
	}
}

func TestChatStoreWindowEvictsOldest(t *testing.T) {
	store := NewChatStore(15, testLogger())
	key := Key("codeforces", "1850A")

	for i := 1; i <= 16; i++ {
		store.Add(key, models.RoleUser, fmt.Sprintf("message %d", i), "")
	}

	history := store.History(key)
	if len(history) != 15 {
		t.Fatalf("history length = %d, want 15", len(history))
	}
	// Oldest evicted: window is messages 2..16 in original relative order.
	for i, msg := range history {
		want := fmt.Sprintf("message %d", i+2)
		if msg.Content != want {
			t.Errorf("history[%d].Content = %q, want %q", i, msg.Content, want)
		}
	}
}

func TestChatStoreCustomWindow(t *testing.T) {
	store := NewChatStore(3, testLogger())
	key := Key("atcoder", "ABC")

	for i := 1; i <= 5; i++ {
		store.Add(key, models.RoleUser, fmt.Sprintf("m%d", i), "")
	}

	history := store.History(key)
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[0].Content != "m3" || history[2].Content != "m5" {
		t.Errorf("window = [%s..%s], want [m3..m5]", history[0].Content, history[2].Content)
	}
}

func TestChatStoreFormatForPrompt(t *testing.T) {
	store := NewChatStore(15, testLogger())
	key := Key("leetcode", "Two Sum")

	store.Add(key, models.RoleUser, "What is this problem about?", "")
	store.Add(key, models.RoleAssistant, "It asks for two indices.", "ExplainAgent")
	store.Add(key, models.RoleAssistant, "Anything else?", "")

	got := store.FormatForPrompt(key)
	want := "User: What is this problem about?\n\n" +
		"Assistant (via ExplainAgent): It asks for two indices.\n\n" +
		"Assistant: Anything else?"
	if got != want {
		t.Errorf("FormatForPrompt =\n%q\nwant\n%q", got, want)
	}
}

func TestChatStoreClear(t *testing.T) {
	store := NewChatStore(15, testLogger())
	key := Key("codechef", "START01")

	store.Add(key, models.RoleUser, "hello", "")
	store.Clear(key)

	if got := store.History(key); len(got) != 0 {
		t.Errorf("History after clear = %v, want empty", got)
	}
	if got := store.FormatForPrompt(key); got != NoConversation {
		t.Errorf("FormatForPrompt after clear = %q, want sentinel", got)
	}

	// Clear of an unseen key is a no-op
	store.Clear(Key("codechef", "never seen"))
}

func TestChatStoreKeysIsolated(t *testing.T) {
	store := NewChatStore(15, testLogger())
	keyA := Key("codeforces", "problem A")
	keyB := Key("codeforces", "problem B")

	store.Add(keyA, models.RoleUser, "only for A", "")

	if got := store.History(keyB); len(got) != 0 {
		t.Errorf("key B history = %v, want empty", got)
	}
}

func TestChatStoreConcurrentAdds(t *testing.T) {
	store := NewChatStore(15, testLogger())
	key := Key("codeforces", "race")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.Add(key, models.RoleUser, fmt.Sprintf("m%d", n), "")
			store.FormatForPrompt(key)
		}(i)
	}
	wg.Wait()

	history := store.History(key)
	if len(history) != 15 {
		t.Fatalf("history length = %d, want capped at 15", len(history))
	}
	for _, msg := range history {
		if !strings.HasPrefix(msg.Content, "m") {
			t.Errorf("unexpected message content %q", msg.Content)
		}
	}
}
