package history

import (
	"sort"
	"sync"
	"time"

	"github.com/cp-ai-assist-go/internal/models"
	"github.com/sirupsen/logrus"
)

// HintStore keeps the ordered hint progression per problem key. Entries are
// immutable; a duplicate number is dropped rather than overwriting the
// first-written text. All state is in-memory and process-lifetime.
type HintStore struct {
	mu      sync.RWMutex
	entries map[string]*hintHistory
	logger  *logrus.Logger
}

type hintHistory struct {
	mu    sync.Mutex
	hints []models.HintEntry
}

// NewHintStore creates an empty hint store.
func NewHintStore(logger *logrus.Logger) *HintStore {
	return &HintStore{
		entries: make(map[string]*hintHistory),
		logger:  logger,
	}
}

// History returns the hints issued for a key, ascending by number.
// The returned slice is a copy.
func (s *HintStore) History(key string) []models.HintEntry {
	s.mu.RLock()
	h, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]models.HintEntry, len(h.hints))
	copy(out, h.hints)
	return out
}

// NextNumber returns the number the next hint should carry: 1 for an unseen
// key, otherwise one past the highest number issued so far.
func (s *HintStore) NextNumber(key string) int {
	hints := s.History(key)
	if len(hints) == 0 {
		return 1
	}

	max := hints[0].Number
	for _, h := range hints[1:] {
		if h.Number > max {
			max = h.Number
		}
	}
	return max + 1
}

// Add records a hint at the given number. If that number already exists for
// the key, the call is a no-op; the stored sequence stays sorted ascending.
func (s *HintStore) Add(key string, number int, text string) {
	h := s.getOrCreate(key)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, existing := range h.hints {
		if existing.Number == number {
			s.logger.WithFields(logrus.Fields{
				"key":         key,
				"hint_number": number,
			}).Debug("Duplicate hint number, keeping existing entry")
			return
		}
	}

	h.hints = append(h.hints, models.HintEntry{
		Number:    number,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
	sort.Slice(h.hints, func(i, j int) bool {
		return h.hints[i].Number < h.hints[j].Number
	})
}

// Reset clears all hint history for a key. No-op if the key is unseen.
func (s *HintStore) Reset(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// getOrCreate gets or creates the per-key history
func (s *HintStore) getOrCreate(key string) *hintHistory {
	s.mu.RLock()
	h, exists := s.entries[key]
	s.mu.RUnlock()

	if exists {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if h, exists := s.entries[key]; exists {
		return h
	}

	h = &hintHistory{}
	s.entries[key] = h
	return h
}
