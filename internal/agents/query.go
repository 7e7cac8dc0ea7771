package agents

import (
	"context"
	"fmt"

	"github.com/cp-ai-assist-go/internal/services/ai"
	"github.com/sirupsen/logrus"
)

const querySystemPrompt = `You are an expert competitive programming tutor answering follow-up questions. The user has doubts about something from the earlier conversation, or a general clarifying question.

Use the conversation history below to understand what was already discussed:
1. If the question refers to an earlier answer, restate the relevant part and clarify it
2. If something earlier was ambiguous, resolve the ambiguity directly
3. If the question is unrelated to the history, answer it on its own
4. Keep the answer focused; do not re-explain the whole problem unprompted

Format your response using markdown:
- Use **bold** for key concepts
- Use ` + "`code`" + ` for technical terms
- Quote the earlier statement you are clarifying when helpful

Be patient and precise.`

// QueryAgent answers follow-up questions using the bounded chat transcript.
// It never writes chat state itself.
type QueryAgent struct {
	base
}

// NewQueryAgent creates the clarification handler.
func NewQueryAgent(aiService ai.Service, modelID string, logger *logrus.Logger) *QueryAgent {
	return &QueryAgent{base{ai: aiService, modelID: modelID, logger: logger}}
}

// Run answers the question against the formatted conversation transcript.
func (a *QueryAgent) Run(ctx context.Context, site, title, problem, chatHistory, question string) (string, error) {
	user := fmt.Sprintf(`Platform: %s
Problem Title: %s
Problem Statement:
%s

Conversation History:
%s

User's Question: %s

Please answer the user's follow-up question.`, site, title, problem, chatHistory, question)

	return a.invoke(ctx, querySystemPrompt, user, 0.45)
}
