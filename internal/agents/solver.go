package agents

import (
	"context"
	"fmt"

	"github.com/cp-ai-assist-go/internal/services/ai"
	"github.com/sirupsen/logrus"
)

const solverSystemPrompt = `You are an expert competitive programming solver. Your job is to provide complete, working code solutions.

Format your response using markdown with clear structure:
- Use **bold** for important concepts
- Use ` + "`code`" + ` for algorithm names and complexity
- Use code blocks with ` + "```language" + ` for the solution code
- Provide clear explanations

Structure your solution:
## Approach
Explain the algorithm and strategy in 2-3 sentences.

## Complexity Analysis
- **Time Complexity**: O(?)
- **Space Complexity**: O(?)

## Solution Code
Provide the complete working code in a fenced block for the requested language.

## Explanation
Walk through the key parts of the code and why they work.

Be clear, concise, and ensure the code is correct and efficient.`

// SolverAgent writes a full solution in the resolved target language.
type SolverAgent struct {
	base
}

// NewSolverAgent creates the solve handler.
func NewSolverAgent(aiService ai.Service, modelID string, logger *logrus.Logger) *SolverAgent {
	return &SolverAgent{base{ai: aiService, modelID: modelID, logger: logger}}
}

// Run produces a complete solution. language must already be resolved by the
// caller; the agent never guesses it.
func (a *SolverAgent) Run(ctx context.Context, site, title, problem, language, question string) (string, error) {
	user := fmt.Sprintf(`Platform: %s
Problem Title: %s
Problem Statement:
%s

Programming Language: %s
User's Question: %s

Please provide a complete working solution in %s.`, site, title, problem, language, question, language)

	return a.invoke(ctx, solverSystemPrompt, user, 0.3)
}
