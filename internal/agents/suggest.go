package agents

import (
	"context"
	"fmt"

	"github.com/cp-ai-assist-go/internal/services/ai"
	"github.com/sirupsen/logrus"
)

const suggestSystemPrompt = `You are an expert competitive programming mentor. Your job is to suggest related problems and practice recommendations.

Format your response using markdown with clear structure:
- Use **bold** for problem names and key algorithms
- Use bullet points for problem lists
- Use numbered lists for learning progression
- Use ` + "`code`" + ` for algorithm names and data structures

Structure your recommendations:
## Similar Problems
List 3-5 related problems with:
- **Problem Name** - Brief description and difficulty
- Platform (LeetCode, Codeforces, CodeChef, AtCoder)

## Key Topics to Study
List the main topics and algorithms needed.

## Learning Progression
Suggest a difficulty progression path with specific problems.

## Practice Strategy
Provide actionable advice for mastering these concepts.

Be specific and actionable.`

// SuggestAgent recommends related problems and practice paths.
type SuggestAgent struct {
	base
}

// NewSuggestAgent creates the suggest handler.
func NewSuggestAgent(aiService ai.Service, modelID string, logger *logrus.Logger) *SuggestAgent {
	return &SuggestAgent{base{ai: aiService, modelID: modelID, logger: logger}}
}

// Run produces practice recommendations related to the current problem.
func (a *SuggestAgent) Run(ctx context.Context, site, title, problem, question string) (string, error) {
	user := fmt.Sprintf(`Platform: %s
Current Problem: %s
Problem Statement:
%s

User's Question: %s

Please suggest similar problems or next steps for practice.`, site, title, problem, question)

	return a.invoke(ctx, suggestSystemPrompt, user, 0.6)
}
