package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/cp-ai-assist-go/internal/models"
	"github.com/cp-ai-assist-go/internal/services/ai"
	"github.com/sirupsen/logrus"
)

// Intent is the classified purpose of a question. It selects which agent
// responds. Values outside the declared constants never leave the classifier.
type Intent string

const (
	IntentExplain Intent = "explain"
	IntentDebug   Intent = "debug"
	IntentSuggest Intent = "suggest"
	IntentSolve   Intent = "solve"
	IntentHint    Intent = "hint"
	IntentQuery   Intent = "query"
)

// LabelSet selects which intents the classifier recognizes and which
// fallback applies when the model returns something else.
type LabelSet string

const (
	// LabelSetFull recognizes all six intents; unrecognized output falls
	// back to query unconditionally.
	LabelSetFull LabelSet = "full"
	// LabelSetLegacy recognizes explain/debug/suggest only; unrecognized
	// output falls back to debug when code is present, else explain.
	LabelSetLegacy LabelSet = "legacy"
)

var fullIntents = []Intent{IntentExplain, IntentDebug, IntentSuggest, IntentSolve, IntentHint, IntentQuery}

var legacyIntents = []Intent{IntentExplain, IntentDebug, IntentSuggest}

const classifierFullPrompt = `You are an intent classifier for a competitive programming assistant.

Classify the user's question into ONE of these intents:
- "explain" - User wants the problem explained or clarified
- "debug" - User wants help finding bugs or errors in their code
- "suggest" - User wants similar problem recommendations or practice suggestions
- "solve" - User wants a complete code solution (keywords: "solve", "solution", "code for", "write code", "complete code")
- "hint" - User wants a hint or clue (keywords: "hint", "clue", "help me figure", "guide me", "push in right direction")
- "query" - User has doubts about previous conversation, asking follow-up questions, or general questions (keywords: "what did you mean", "can you clarify", "explain that again", "what was", "you said", "earlier", "previous", "before")

Respond with ONLY the intent word: explain, debug, suggest, solve, hint, or query`

const classifierLegacyPrompt = `You are an intent classifier for a competitive programming assistant.

Classify the user's question into ONE of these intents:
- "explain" - User wants the problem explained or clarified
- "debug" - User wants help finding bugs or errors in their code
- "suggest" - User wants similar problem recommendations or practice suggestions

Respond with ONLY the intent word: explain, debug, or suggest`

// Classifier resolves a question to an Intent. The model does the actual
// classification; this type owns normalization of the raw output and the
// fallback applied when that output is not a recognized label.
type Classifier struct {
	ai       ai.Service
	modelID  string
	labelSet LabelSet
	valid    map[Intent]bool
	logger   *logrus.Logger
}

// NewClassifier creates a classifier using the given label set.
func NewClassifier(aiService ai.Service, modelID string, labelSet LabelSet, logger *logrus.Logger) *Classifier {
	intents := fullIntents
	if labelSet == LabelSetLegacy {
		intents = legacyIntents
	}

	valid := make(map[Intent]bool, len(intents))
	for _, intent := range intents {
		valid[intent] = true
	}

	return &Classifier{
		ai:       aiService,
		modelID:  modelID,
		labelSet: labelSet,
		valid:    valid,
		logger:   logger,
	}
}

// Classify resolves the question to an Intent. It always returns a recognized
// label, never raw model output; only a failed model call returns an error.
func (c *Classifier) Classify(ctx context.Context, question string, hasCode bool) (Intent, error) {
	hasCodeStr := "no"
	if hasCode {
		hasCodeStr = "yes"
	}

	system := classifierFullPrompt
	if c.labelSet == LabelSetLegacy {
		system = classifierLegacyPrompt
	}

	raw, err := c.ai.GetResponse(ctx, ai.ChatRequest{
		Messages: []models.Message{
			{Role: "system", Content: system},
			{Role: models.RoleUser, Content: fmt.Sprintf("User's Question: %s\nHas Code: %s\n\nIntent:", question, hasCodeStr)},
		},
		ModelID:     c.modelID,
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}

	intent := Intent(strings.ToLower(strings.TrimSpace(raw)))
	if c.valid[intent] {
		return intent, nil
	}

	fallback := c.Fallback(hasCode)
	c.logger.WithFields(logrus.Fields{
		"raw":      raw,
		"fallback": fallback,
	}).Debug("Unrecognized classifier output, applying fallback")
	return fallback, nil
}

// Fallback returns the intent used when the model output is not a recognized
// label. It is also the router's defensive default route.
func (c *Classifier) Fallback(hasCode bool) Intent {
	if c.labelSet == LabelSetLegacy {
		if hasCode {
			return IntentDebug
		}
		return IntentExplain
	}
	return IntentQuery
}
