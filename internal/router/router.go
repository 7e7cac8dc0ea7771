package router

import (
	"context"
	"fmt"

	"github.com/cp-ai-assist-go/internal/agents"
	"github.com/cp-ai-assist-go/internal/i18n"
	"github.com/cp-ai-assist-go/internal/middleware"
	"github.com/cp-ai-assist-go/internal/models"
	"github.com/cp-ai-assist-go/internal/services/cache"
	"github.com/cp-ai-assist-go/internal/services/history"
	"github.com/sirupsen/logrus"
)

// Localizer resolves user-facing canned messages.
type Localizer interface {
	Get(lang, messageID string, data map[string]interface{}) string
}

// Request is the per-question routing context. It lives for one pass only.
type Request struct {
	Site              string
	ProblemTitle      string
	ProblemStatement  string
	UserCode          string
	CodeLanguage      string
	PreferredLanguage string
	Question          string
}

// Result is the outcome of one routing pass. HintNumbers is populated for
// hint-intent requests only and lists every hint number issued so far.
type Result struct {
	Answer      string
	AgentUsed   string
	Intent      Intent
	HintNumbers []int
}

// routeState threads one request through classification and the terminal
// handler.
type routeState struct {
	req        Request
	key        string
	transcript string
	result     Result
}

type handlerFunc func(ctx context.Context, st *routeState) error

// Router is the classify-then-dispatch state machine. One entry state
// (classify), one terminal state per intent, no cycles, no retries.
type Router struct {
	classifier *Classifier
	explain    *agents.ExplainAgent
	debug      *agents.DebugAgent
	suggest    *agents.SuggestAgent
	solver     *agents.SolverAgent
	hint       *agents.HintAgent
	query      *agents.QueryAgent

	hints *history.HintStore
	chat  *history.ChatStore
	cache cache.Service

	handlers map[Intent]handlerFunc

	maxHints  int
	modelID   string
	localizer Localizer
	metrics   *middleware.Metrics
	logger    *logrus.Logger
}

// Deps carries everything a Router needs. All stores are injected so tests
// can build isolated instances.
type Deps struct {
	Classifier *Classifier
	Explain    *agents.ExplainAgent
	Debug      *agents.DebugAgent
	Suggest    *agents.SuggestAgent
	Solver     *agents.SolverAgent
	Hint       *agents.HintAgent
	Query      *agents.QueryAgent
	Hints      *history.HintStore
	Chat       *history.ChatStore
	Cache      cache.Service
	MaxHints   int
	ModelID    string
	Localizer  Localizer
	Metrics    *middleware.Metrics
	Logger     *logrus.Logger
}

// New creates a Router and builds its dispatch table.
func New(deps Deps) *Router {
	r := &Router{
		classifier: deps.Classifier,
		explain:    deps.Explain,
		debug:      deps.Debug,
		suggest:    deps.Suggest,
		solver:     deps.Solver,
		hint:       deps.Hint,
		query:      deps.Query,
		hints:      deps.Hints,
		chat:       deps.Chat,
		cache:      deps.Cache,
		maxHints:   deps.MaxHints,
		modelID:    deps.ModelID,
		localizer:  deps.Localizer,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
	if r.maxHints <= 0 {
		r.maxHints = 7
	}

	r.handlers = map[Intent]handlerFunc{
		IntentExplain: r.explainNode,
		IntentDebug:   r.debugNode,
		IntentSuggest: r.suggestNode,
		IntentSolve:   r.solveNode,
		IntentHint:    r.hintNode,
		IntentQuery:   r.queryNode,
	}

	return r
}

// Route runs one full pass: record the question, classify, dispatch, record
// the answer. Model-call failures propagate to the caller; the user-question
// append is not rolled back on failure.
func (r *Router) Route(ctx context.Context, req Request) (*Result, error) {
	st := &routeState{
		req: req,
		key: history.Key(req.Site, req.ProblemTitle),
	}

	// The transcript handed to the query agent excludes the question being
	// asked right now.
	st.transcript = r.chat.FormatForPrompt(st.key)
	r.chat.Add(st.key, models.RoleUser, req.Question, "")

	intent, err := r.classifier.Classify(ctx, req.Question, req.UserCode != "")
	if err != nil {
		return nil, err
	}
	st.result.Intent = intent

	handler, exists := r.handlers[intent]
	if !exists {
		// Unreachable while Classify honors its contract; route to the
		// same default the classifier falls back to.
		fallback := r.classifier.Fallback(req.UserCode != "")
		r.logger.WithFields(logrus.Fields{
			"intent":   intent,
			"fallback": fallback,
		}).Warn("No handler for intent, using fallback route")
		st.result.Intent = fallback
		handler = r.handlers[fallback]
	}

	if err := handler(ctx, st); err != nil {
		return nil, err
	}

	r.chat.Add(st.key, models.RoleAssistant, st.result.Answer, st.result.AgentUsed)
	r.metrics.RecordIntentRouted(string(st.result.Intent))

	return &st.result, nil
}

func (r *Router) explainNode(ctx context.Context, st *routeState) error {
	st.result.AgentUsed = "ExplainAgent"
	if answer, ok := r.cachedAnswer(ctx, st); ok {
		st.result.Answer = answer
		return nil
	}

	answer, err := r.explain.Run(ctx, st.req.Site, st.req.ProblemTitle, st.req.ProblemStatement, st.req.Question)
	if err != nil {
		return err
	}
	st.result.Answer = answer
	r.storeAnswer(ctx, st)
	return nil
}

func (r *Router) debugNode(ctx context.Context, st *routeState) error {
	st.result.AgentUsed = "DebugAgent"

	language := st.req.CodeLanguage
	if language == "" {
		language = "unknown"
	}

	answer, err := r.debug.Run(ctx, st.req.Site, st.req.ProblemStatement, st.req.UserCode, language, st.req.Question)
	if err != nil {
		return err
	}
	st.result.Answer = answer
	return nil
}

func (r *Router) suggestNode(ctx context.Context, st *routeState) error {
	st.result.AgentUsed = "SuggestAgent"
	if answer, ok := r.cachedAnswer(ctx, st); ok {
		st.result.Answer = answer
		return nil
	}

	answer, err := r.suggest.Run(ctx, st.req.Site, st.req.ProblemTitle, st.req.ProblemStatement, st.req.Question)
	if err != nil {
		return err
	}
	st.result.Answer = answer
	r.storeAnswer(ctx, st)
	return nil
}

func (r *Router) solveNode(ctx context.Context, st *routeState) error {
	st.result.AgentUsed = "SolverAgent"

	answer, err := r.solver.Run(ctx, st.req.Site, st.req.ProblemTitle, st.req.ProblemStatement, st.req.PreferredLanguage, st.req.Question)
	if err != nil {
		return err
	}
	st.result.Answer = answer
	return nil
}

func (r *Router) hintNode(ctx context.Context, st *routeState) error {
	st.result.AgentUsed = "HintAgent"

	next := r.hints.NextNumber(st.key)
	if next > r.maxHints {
		// Terminal business outcome, not an error: no model call, no new
		// hint entry.
		r.metrics.RecordHintLimitHit()
		st.result.Answer = r.localizer.Get("", i18n.MsgHintLimitReached, map[string]interface{}{
			"Max": r.maxHints,
		})
		st.result.HintNumbers = hintNumbers(r.hints.History(st.key))
		return nil
	}

	answer, err := r.hint.Run(ctx, agents.HintInput{
		Site:     st.req.Site,
		Title:    st.req.ProblemTitle,
		Problem:  st.req.ProblemStatement,
		Question: st.req.Question,
		Number:   next,
		Max:      r.maxHints,
		Previous: r.hints.History(st.key),
	})
	if err != nil {
		return err
	}

	r.hints.Add(st.key, next, answer)
	r.metrics.RecordHintIssued()

	st.result.Answer = answer
	st.result.HintNumbers = hintNumbers(r.hints.History(st.key))

	r.logger.WithFields(logrus.Fields{
		"site":        st.req.Site,
		"title":       st.req.ProblemTitle,
		"hint_number": next,
	}).Info("Hint issued")
	return nil
}

func (r *Router) queryNode(ctx context.Context, st *routeState) error {
	st.result.AgentUsed = "QueryAgent"

	answer, err := r.query.Run(ctx, st.req.Site, st.req.ProblemTitle, st.req.ProblemStatement, st.transcript, st.req.Question)
	if err != nil {
		return err
	}
	st.result.Answer = answer
	return nil
}

// cachedAnswer consults the answer cache for stateless intents. Stateful
// intents never reach here: hint and query answers depend on per-problem
// state, debug and solve on submitted code.
func (r *Router) cachedAnswer(ctx context.Context, st *routeState) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	answer, found := r.cache.Get(ctx, r.cacheKey(st), r.modelID)
	if found {
		r.metrics.RecordCacheHit()
		return answer, true
	}
	r.metrics.RecordCacheMiss()
	return "", false
}

func (r *Router) storeAnswer(ctx context.Context, st *routeState) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, r.cacheKey(st), r.modelID, st.result.Answer); err != nil {
		r.logger.WithError(err).Warn("Failed to cache answer")
	}
}

// cacheKey scopes cached answers to the problem so identical questions about
// different problems never collide.
func (r *Router) cacheKey(st *routeState) string {
	return fmt.Sprintf("%s:%s:%s", st.key, st.result.AgentUsed, st.req.Question)
}

func hintNumbers(entries []models.HintEntry) []int {
	numbers := make([]int, 0, len(entries))
	for _, e := range entries {
		numbers = append(numbers, e.Number)
	}
	return numbers
}
