package agents

import (
	"context"
	"fmt"

	"github.com/cp-ai-assist-go/internal/services/ai"
	"github.com/sirupsen/logrus"
)

const debugSystemPrompt = `You are an expert debugging assistant for competitive programming. Your job is to identify bugs, logical errors, and implementation issues.

Analyze the code and:
1. Identify potential bugs or logical errors
2. Check for edge cases that might not be handled
3. Look for time/space complexity issues
4. Suggest specific fixes or improvements
5. Provide hints rather than complete solutions when appropriate

Be precise and actionable.`

// DebugAgent reviews submitted code against the problem statement.
type DebugAgent struct {
	base
}

// NewDebugAgent creates the debug handler.
func NewDebugAgent(aiService ai.Service, modelID string, logger *logrus.Logger) *DebugAgent {
	return &DebugAgent{base{ai: aiService, modelID: modelID, logger: logger}}
}

// Run produces a debugging analysis of the submitted code.
func (a *DebugAgent) Run(ctx context.Context, site, problem, code, language, question string) (string, error) {
	user := fmt.Sprintf("Platform: %s\nProblem: %s\nLanguage: %s\n\nUser's Code:\n```%s\n%s\n```\n\nUser's Question: %s\n\nPlease help debug this code.",
		site, problem, language, language, code, question)

	return a.invoke(ctx, debugSystemPrompt, user, 0.3)
}
