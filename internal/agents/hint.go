package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cp-ai-assist-go/internal/models"
	"github.com/cp-ai-assist-go/internal/services/ai"
	"github.com/sirupsen/logrus"
)

const hintSystemPrompt = `You are an expert competitive programming tutor who provides progressive hints. Your job is to guide students step-by-step without giving away the complete solution.

CRITICAL: You MUST format your response using STRICT markdown structure:
- Use **bold** for key concepts and important terms
- Use numbered lists for sequential steps
- Use ` + "`code`" + ` for algorithm names, patterns, and technical terms
- Use proper spacing and line breaks between sections
- Be encouraging and supportive

IMPORTANT RULES:
1. You are providing Hint #%d out of %d total hints
2. Previous hints and their FULL CONTENT are shown below
3. Do NOT repeat information from previous hints
4. Build upon previous hints progressively - reference what was already revealed
5. Each hint should reveal ONE new insight or step
6. As you approach hint %d, provide more specific guidance
7. Hint %d should nearly reveal the solution approach but still require implementation
8. End with: "Need more help? Ask for another hint!"

Structure your hint:
## Hint #%d

[Provide ONE specific, actionable insight that builds on previous hints]

**Think about**: [A guiding question to help them apply this hint]

Need more help? Ask for another hint!

Be patient, encouraging, and pedagogical. Help them learn, don't just solve it for them.`

// HintInput carries everything the hint agent needs to continue a
// progression: the target number, the cap, and every hint already given.
type HintInput struct {
	Site     string
	Title    string
	Problem  string
	Question string
	Number   int
	Max      int
	Previous []models.HintEntry
}

// HintAgent produces the next hint in a problem's progression.
type HintAgent struct {
	base
}

// NewHintAgent creates the hint handler.
func NewHintAgent(aiService ai.Service, modelID string, logger *logrus.Logger) *HintAgent {
	return &HintAgent{base{ai: aiService, modelID: modelID, logger: logger}}
}

// Run produces hint in.Number, building on the full prior sequence.
func (a *HintAgent) Run(ctx context.Context, in HintInput) (string, error) {
	system := fmt.Sprintf(hintSystemPrompt, in.Number, in.Max, in.Max, in.Max, in.Number)

	user := fmt.Sprintf(`Platform: %s
Problem Title: %s
Problem Statement:
%s

%s

User's Question: %s

Please provide Hint #%d that builds on the previous hints without repeating them.`,
		in.Site, in.Title, in.Problem, formatPreviousHints(in.Number, in.Previous), in.Question, in.Number)

	return a.invoke(ctx, system, user, 0.4)
}

// formatPreviousHints renders the prior progression so the model can build on
// it without repeating anything.
func formatPreviousHints(number int, previous []models.HintEntry) string {
	if len(previous) == 0 {
		return "Hint Number: 1 (First hint)\nNo previous hints have been given yet."
	}

	var sections []string
	for _, entry := range previous {
		sections = append(sections, fmt.Sprintf("=== Previous Hint #%d ===\n%s\n", entry.Number, entry.Text))
	}
	return fmt.Sprintf("Hint Number: %d\n\nPREVIOUS HINTS (DO NOT REPEAT):\n%s", number, strings.Join(sections, "\n"))
}
