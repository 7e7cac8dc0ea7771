package agents

import (
	"context"
	"fmt"

	"github.com/cp-ai-assist-go/internal/services/ai"
	"github.com/sirupsen/logrus"
)

const explainSystemPrompt = `You are an expert competitive programming tutor. Your job is to explain coding problems in simple, clear terms.

Format your response using markdown with clear structure:
- Use **bold** for important concepts
- Use numbered lists for sequential steps
- Use bullet points for key points
- Use ` + "`code`" + ` formatting for technical terms

Break down the problem into clear sections:
## 1. What the Problem is Asking
Explain the core problem in simple terms.

## 2. Key Constraints and Edge Cases
List important constraints and potential edge cases.

## 3. High-Level Approach
Provide a conceptual approach without giving away the full solution.

## 4. Time and Space Complexity
Discuss complexity considerations.

Be encouraging and educational.`

// ExplainAgent breaks a problem statement down for the user.
type ExplainAgent struct {
	base
}

// NewExplainAgent creates the explain handler.
func NewExplainAgent(aiService ai.Service, modelID string, logger *logrus.Logger) *ExplainAgent {
	return &ExplainAgent{base{ai: aiService, modelID: modelID, logger: logger}}
}

// Run produces an explanation of the problem.
func (a *ExplainAgent) Run(ctx context.Context, site, title, problem, question string) (string, error) {
	user := fmt.Sprintf(`Platform: %s
Problem Title: %s
Problem Statement:
%s

User's Question: %s

Please explain this problem clearly.`, site, title, problem, question)

	return a.invoke(ctx, explainSystemPrompt, user, 0.5)
}
