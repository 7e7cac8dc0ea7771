package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cp-ai-assist-go/internal/agents"
	"github.com/cp-ai-assist-go/internal/i18n"
	"github.com/cp-ai-assist-go/internal/middleware"
	"github.com/cp-ai-assist-go/internal/models"
	"github.com/cp-ai-assist-go/internal/services/cache"
	"github.com/cp-ai-assist-go/internal/services/history"
)

// stubLocalizer returns message IDs verbatim.
type stubLocalizer struct{}

func (stubLocalizer) Get(lang, messageID string, data map[string]interface{}) string {
	return messageID
}

type testEnv struct {
	router *Router
	fake   *fakeAI
	hints  *history.HintStore
	chat   *history.ChatStore
}

func newTestEnv(t *testing.T, labelSet LabelSet, answerCache cache.Service) *testEnv {
	t.Helper()
	log := testLogger()
	fake := &fakeAI{}
	hints := history.NewHintStore(log)
	chat := history.NewChatStore(15, log)

	rt := New(Deps{
		Classifier: NewClassifier(fake, "test-model", labelSet, log),
		Explain:    agents.NewExplainAgent(fake, "test-model", log),
		Debug:      agents.NewDebugAgent(fake, "test-model", log),
		Suggest:    agents.NewSuggestAgent(fake, "test-model", log),
		Solver:     agents.NewSolverAgent(fake, "test-model", log),
		Hint:       agents.NewHintAgent(fake, "test-model", log),
		Query:      agents.NewQueryAgent(fake, "test-model", log),
		Hints:      hints,
		Chat:       chat,
		Cache:      answerCache,
		MaxHints:   7,
		ModelID:    "test-model",
		Localizer:  stubLocalizer{},
		Metrics:    middleware.NewMetrics(),
		Logger:     log,
	})

	return &testEnv{router: rt, fake: fake, hints: hints, chat: chat}
}

func TestRouteExplainWithoutCode(t *testing.T) {
	env := newTestEnv(t, LabelSetFull, nil)
	env.fake.label = "explain"
	env.fake.answer = "Here is what the problem asks."

	result, err := env.router.Route(context.Background(), Request{
		Site:             "leetcode",
		ProblemTitle:     "Two Sum",
		ProblemStatement: "Given an array of integers...",
		Question:         "Can you explain this problem to me?",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Intent != IntentExplain {
		t.Errorf("intent = %q, want explain", result.Intent)
	}
	if result.AgentUsed != "ExplainAgent" {
		t.Errorf("agent = %q, want ExplainAgent", result.AgentUsed)
	}
	if result.Answer != env.fake.answer {
		t.Errorf("answer = %q", result.Answer)
	}

	// Call 0 is the classifier, call 1 the explain agent.
	if env.fake.callCount() != 2 {
		t.Fatalf("model calls = %d, want 2", env.fake.callCount())
	}
	agentPrompt := env.fake.call(1).Messages[1].Content
	if !strings.Contains(agentPrompt, "Given an array of integers...") {
		t.Errorf("explain prompt missing problem statement: %q", agentPrompt)
	}
	if strings.Contains(agentPrompt, "User's Code") {
		t.Errorf("explain prompt should not carry code fields: %q", agentPrompt)
	}
}

func TestRouteDebugWithCode(t *testing.T) {
	env := newTestEnv(t, LabelSetFull, nil)
	env.fake.label = "debug"
	env.fake.answer = "Your loop bound is off by one."

	result, err := env.router.Route(context.Background(), Request{
		Site:             "codeforces",
		ProblemTitle:     "1850A",
		ProblemStatement: "Find the maximum...",
		UserCode:         "for (int i = 0; i <= n; i++)",
		CodeLanguage:     "cpp",
		Question:         "my code gives wrong answer, help",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Intent != IntentDebug {
		t.Errorf("intent = %q, want debug", result.Intent)
	}
	if result.AgentUsed != "DebugAgent" {
		t.Errorf("agent = %q, want DebugAgent", result.AgentUsed)
	}

	agentPrompt := env.fake.call(1).Messages[1].Content
	if !strings.Contains(agentPrompt, "for (int i = 0; i <= n; i++)") {
		t.Errorf("debug prompt missing submitted code: %q", agentPrompt)
	}
	if !strings.Contains(agentPrompt, "Language: cpp") {
		t.Errorf("debug prompt missing language: %q", agentPrompt)
	}
}

func TestRouteSolveUsesPreferredLanguage(t *testing.T) {
	env := newTestEnv(t, LabelSetFull, nil)
	env.fake.label = "solve"
	env.fake.answer = "## Approach\n..."

	_, err := env.router.Route(context.Background(), Request{
		Site:              "leetcode",
		ProblemTitle:      "Two Sum",
		ProblemStatement:  "Given an array...",
		PreferredLanguage: "python",
		Question:          "write the full solution in python",
	})
	if err != nil {
		t.Fatal(err)
	}

	agentPrompt := env.fake.call(1).Messages[1].Content
	if !strings.Contains(agentPrompt, "Programming Language: python") {
		t.Errorf("solve prompt missing resolved language: %q", agentPrompt)
	}
}

func TestRouteRecordsChatHistory(t *testing.T) {
	env := newTestEnv(t, LabelSetFull, nil)
	env.fake.label = "explain"
	env.fake.answer = "the answer"

	req := Request{Site: "leetcode", ProblemTitle: "Two Sum", Question: "what is this?"}
	if _, err := env.router.Route(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	key := history.Key("leetcode", "Two Sum")
	msgs := env.chat.History(key)
	if len(msgs) != 2 {
		t.Fatalf("chat history length = %d, want 2", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[0].Content != "what is this?" {
		t.Errorf("first message = %+v, want the user question", msgs[0])
	}
	if msgs[1].Role != models.RoleAssistant || msgs[1].AgentUsed != "ExplainAgent" {
		t.Errorf("second message = %+v, want the annotated answer", msgs[1])
	}
}

func TestRouteQuerySeesPriorTranscriptOnly(t *testing.T) {
	env := newTestEnv(t, LabelSetFull, nil)

	env.fake.label = "explain"
	env.fake.answer = "It asks for two indices."
	req := Request{Site: "leetcode", ProblemTitle: "Two Sum", Question: "what is this about?"}
	if _, err := env.router.Route(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	env.fake.label = "query"
	env.fake.answer = "I meant array indices."
	req.Question = "what did you mean by indices?"
	result, err := env.router.Route(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.AgentUsed != "QueryAgent" {
		t.Fatalf("agent = %q, want QueryAgent", result.AgentUsed)
	}

	agentPrompt := env.fake.call(3).Messages[1].Content
	if !strings.Contains(agentPrompt, "User: what is this about?") {
		t.Errorf("query prompt missing prior user turn: %q", agentPrompt)
	}
	if !strings.Contains(agentPrompt, "Assistant (via ExplainAgent): It asks for two indices.") {
		t.Errorf("query prompt missing prior assistant turn: %q", agentPrompt)
	}
	// The transcript section must not contain the question being asked now.
	transcript := agentPrompt[:strings.Index(agentPrompt, "User's Question:")]
	if strings.Contains(transcript, "what did you mean by indices?") {
		t.Errorf("transcript should exclude the current question: %q", transcript)
	}
}

func TestRouteHintProgression(t *testing.T) {
	env := newTestEnv(t, LabelSetFull, nil)
	env.fake.label = "hint"

	req := Request{
		Site:             "codeforces",
		ProblemTitle:     "1850A",
		ProblemStatement: "Find the maximum...",
		Question:         "give me a hint",
	}

	for i := 1; i <= 7; i++ {
		env.fake.answer = fmt.Sprintf("hint number %d", i)
		result, err := env.router.Route(context.Background(), req)
		if err != nil {
			t.Fatalf("hint %d: %v", i, err)
		}
		if len(result.HintNumbers) != i {
			t.Fatalf("hint %d: issued numbers = %v", i, result.HintNumbers)
		}
		if result.HintNumbers[i-1] != i {
			t.Errorf("hint %d: last issued number = %d", i, result.HintNumbers[i-1])
		}
	}

	// Hint 3 onwards must see the full prior sequence.
	thirdHintPrompt := env.fake.call(5).Messages[1].Content
	if !strings.Contains(thirdHintPrompt, "=== Previous Hint #1 ===") ||
		!strings.Contains(thirdHintPrompt, "=== Previous Hint #2 ===") {
		t.Errorf("third hint prompt missing previous hints: %q", thirdHintPrompt)
	}
	if !strings.Contains(thirdHintPrompt, "hint number 2") {
		t.Errorf("third hint prompt missing full prior hint text: %q", thirdHintPrompt)
	}
}

func TestRouteHintLimitShortCircuits(t *testing.T) {
	env := newTestEnv(t, LabelSetFull, nil)
	env.fake.label = "hint"

	req := Request{Site: "codeforces", ProblemTitle: "1850A", Question: "hint please"}

	for i := 1; i <= 7; i++ {
		env.fake.answer = fmt.Sprintf("hint %d", i)
		if _, err := env.router.Route(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}

	callsBefore := env.fake.callCount()
	result, err := env.router.Route(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	// Only the classifier ran; the hint agent was never invoked.
	if got := env.fake.callCount(); got != callsBefore+1 {
		t.Errorf("model calls after limit = %d, want %d", got, callsBefore+1)
	}
	if result.Answer != i18n.MsgHintLimitReached {
		t.Errorf("answer = %q, want the hint limit message", result.Answer)
	}

	key := history.Key("codeforces", "1850A")
	if got := len(env.hints.History(key)); got != 7 {
		t.Errorf("hint history length = %d, want 7", got)
	}
	if len(result.HintNumbers) != 7 {
		t.Errorf("issued numbers = %v, want the seven existing hints", result.HintNumbers)
	}
}

func TestRouteModelErrorPropagates(t *testing.T) {
	env := newTestEnv(t, LabelSetFull, nil)
	env.fake.label = "explain"
	wantErr := errors.New("upstream timeout")
	env.fake.agentErr = wantErr

	req := Request{Site: "leetcode", ProblemTitle: "Two Sum", Question: "explain please"}
	_, err := env.router.Route(context.Background(), req)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Route error = %v, want %v", err, wantErr)
	}

	// The user message was already recorded and is not rolled back.
	key := history.Key("leetcode", "Two Sum")
	msgs := env.chat.History(key)
	if len(msgs) != 1 || msgs[0].Role != models.RoleUser {
		t.Errorf("chat history after failure = %+v, want only the user question", msgs)
	}
}

func TestRouteClassifierErrorPropagates(t *testing.T) {
	env := newTestEnv(t, LabelSetFull, nil)
	wantErr := errors.New("provider down")
	env.fake.err = wantErr

	_, err := env.router.Route(context.Background(), Request{Site: "leetcode", Question: "anything"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Route error = %v, want %v", err, wantErr)
	}
}

// recordingCache scripts answer-cache behavior.
type recordingCache struct {
	hit     bool
	answer  string
	gets    int
	sets    int
	lastSet string
}

func (c *recordingCache) Get(ctx context.Context, question, model string) (string, bool) {
	c.gets++
	if c.hit {
		return c.answer, true
	}
	return "", false
}

func (c *recordingCache) Set(ctx context.Context, question, model, answer string) error {
	c.sets++
	c.lastSet = answer
	return nil
}

func (c *recordingCache) Clear(ctx context.Context) error { return nil }

func TestRouteExplainCacheHitSkipsModel(t *testing.T) {
	answerCache := &recordingCache{hit: true, answer: "cached explanation"}
	env := newTestEnv(t, LabelSetFull, answerCache)
	env.fake.label = "explain"

	result, err := env.router.Route(context.Background(), Request{
		Site: "leetcode", ProblemTitle: "Two Sum", Question: "explain this",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Answer != "cached explanation" {
		t.Errorf("answer = %q, want cached", result.Answer)
	}
	// Classifier only; the explain agent never ran.
	if env.fake.callCount() != 1 {
		t.Errorf("model calls = %d, want 1", env.fake.callCount())
	}
}

func TestRouteExplainCacheMissStoresAnswer(t *testing.T) {
	answerCache := &recordingCache{}
	env := newTestEnv(t, LabelSetFull, answerCache)
	env.fake.label = "explain"
	env.fake.answer = "fresh explanation"

	if _, err := env.router.Route(context.Background(), Request{
		Site: "leetcode", ProblemTitle: "Two Sum", Question: "explain this",
	}); err != nil {
		t.Fatal(err)
	}

	if answerCache.sets != 1 || answerCache.lastSet != "fresh explanation" {
		t.Errorf("cache sets = %d lastSet = %q", answerCache.sets, answerCache.lastSet)
	}
}

func TestRouteHintNeverTouchesCache(t *testing.T) {
	answerCache := &recordingCache{hit: true, answer: "should never be used"}
	env := newTestEnv(t, LabelSetFull, answerCache)
	env.fake.label = "hint"
	env.fake.answer = "real hint"

	result, err := env.router.Route(context.Background(), Request{
		Site: "codeforces", ProblemTitle: "1850A", Question: "hint please",
	})
	if err != nil {
		t.Fatal(err)
	}

	if answerCache.gets != 0 {
		t.Errorf("cache gets = %d, want 0 for hint intent", answerCache.gets)
	}
	if result.Answer != "real hint" {
		t.Errorf("answer = %q", result.Answer)
	}
}
