package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cp-ai-assist-go/internal/config"
	"github.com/cp-ai-assist-go/internal/i18n"
	"github.com/cp-ai-assist-go/internal/middleware"
	"github.com/cp-ai-assist-go/internal/models"
	"github.com/cp-ai-assist-go/internal/router"
	"github.com/cp-ai-assist-go/internal/services/ai"
	"github.com/cp-ai-assist-go/pkg/markdown"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// streamDelay paces word-by-word SSE chunks.
const streamDelay = 30 * time.Millisecond

// AskHandler serves the question endpoints.
type AskHandler struct {
	config      *config.Config
	router      *router.Router
	aiService   ai.Service
	rateLimiter middleware.RateLimiter
	security    *middleware.SecurityMiddleware
	metrics     *middleware.Metrics
	localizer   *i18n.Localizer
	logger      *logrus.Logger
}

// NewAskHandler creates the HTTP handler set.
func NewAskHandler(
	cfg *config.Config,
	rt *router.Router,
	aiService ai.Service,
	rateLimiter middleware.RateLimiter,
	metrics *middleware.Metrics,
	localizer *i18n.Localizer,
	logger *logrus.Logger,
) *AskHandler {
	return &AskHandler{
		config:      cfg,
		router:      rt,
		aiService:   aiService,
		rateLimiter: rateLimiter,
		security:    middleware.NewSecurityMiddleware(cfg.Server.MaxQuestionLen, logger),
		metrics:     metrics,
		localizer:   localizer,
		logger:      logger,
	}
}

// Register mounts all routes on the given router.
func (h *AskHandler) Register(r *mux.Router) {
	r.Use(corsMiddleware)
	r.HandleFunc("/", h.HandleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/models", h.HandleModels).Methods(http.MethodGet)
	r.HandleFunc("/ask", h.HandleAsk).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/ask/stream", h.HandleAskStream).Methods(http.MethodPost, http.MethodOptions)
}

// corsMiddleware allows the browser extension to call from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HandleRoot reports liveness.
func (h *AskHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "CP Assistant API is running",
		"status":  "ok",
	})
}

// HandleHealth reports health.
func (h *AskHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleModels lists the configured models.
func (h *AskHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	options := h.aiService.GetAvailableModels()

	type modelEntry struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
	}
	out := make([]modelEntry, 0, len(options))
	for _, opt := range options {
		out = append(out, modelEntry{ID: opt.ID, Name: opt.Name, Endpoint: opt.EndpointName})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"default": h.config.Models.Default,
		"models":  out,
	})
}

// askResponse extends QueryResponse with the hint progression, populated for
// hint-intent requests.
type askResponse struct {
	models.QueryResponse
	HintNumbers []int `json:"hint_numbers,omitempty"`
}

// HandleAsk answers one question.
func (h *AskHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	result, req, ok := h.process(w, r)
	if !ok {
		return
	}

	answer := result.Answer
	if strings.EqualFold(req.Format, "html") {
		answer = markdown.ToSafeHTML(answer)
	}

	h.metrics.RecordRequest("success")
	writeJSON(w, http.StatusOK, askResponse{
		QueryResponse: models.QueryResponse{
			Answer:    answer,
			AgentUsed: result.AgentUsed,
			Intent:    string(result.Intent),
		},
		HintNumbers: result.HintNumbers,
	})
}

// HandleAskStream answers one question as a word-by-word SSE stream.
func (h *AskHandler) HandleAskStream(w http.ResponseWriter, r *http.Request) {
	result, _, ok := h.process(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		h.logger.Warn("Response writer does not support flushing, falling back to plain JSON")
		h.metrics.RecordRequest("success")
		writeJSON(w, http.StatusOK, models.QueryResponse{
			Answer:    result.Answer,
			AgentUsed: result.AgentUsed,
			Intent:    string(result.Intent),
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	words := strings.Fields(result.Answer)
	for i, word := range words {
		token := word
		if i < len(words)-1 {
			token += " "
		}
		writeSSE(w, models.StreamChunk{Token: token})
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case <-time.After(streamDelay):
		}
	}

	writeSSE(w, models.StreamChunk{
		Done:      true,
		AgentUsed: result.AgentUsed,
		Intent:    string(result.Intent),
	})
	flusher.Flush()
	h.metrics.RecordRequest("success")
}

// process parses, validates, rate-limits and routes one question. On failure
// it writes the error response and returns ok=false.
func (h *AskHandler) process(w http.ResponseWriter, r *http.Request) (*router.Result, *models.QueryRequest, bool) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.RecordRequest("bad_request")
		h.writeError(w, http.StatusBadRequest, i18n.MsgInvalidRequest)
		return nil, nil, false
	}

	if req.Site == "" {
		h.metrics.RecordRequest("bad_request")
		h.writeError(w, http.StatusBadRequest, i18n.MsgInvalidRequest)
		return nil, nil, false
	}

	if err := h.security.ValidateQuestion(req.Question); err != nil {
		h.logger.WithError(err).Warn("Question validation failed")
		h.metrics.RecordRequest("bad_request")
		h.writeError(w, http.StatusBadRequest, i18n.MsgQuestionTooLong)
		return nil, nil, false
	}

	if !h.rateLimiter.Allow(clientAddr(r)) {
		h.metrics.RecordRateLimitExceeded()
		h.metrics.RecordRequest("rate_limited")
		h.writeError(w, http.StatusTooManyRequests, i18n.MsgRateLimitExceeded)
		return nil, nil, false
	}

	routeReq := router.Request{
		Site:              req.Site,
		ProblemTitle:      req.ProblemTitle,
		ProblemStatement:  req.ProblemStatement,
		UserCode:          req.UserCode,
		CodeLanguage:      req.Language,
		PreferredLanguage: detectPreferredLanguage(req.Question, req.Language),
		Question:          req.Question,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	result, err := h.router.Route(ctx, routeReq)
	if err != nil {
		// Genuine external failure; never a partial answer.
		h.logger.WithError(err).WithFields(logrus.Fields{
			"site":  req.Site,
			"title": req.ProblemTitle,
		}).Error("Routing failed")
		h.metrics.RecordRequest("error")
		h.writeError(w, http.StatusInternalServerError, i18n.MsgInternalError)
		return nil, nil, false
	}

	return result, &req, true
}

func (h *AskHandler) writeError(w http.ResponseWriter, status int, messageID string) {
	writeJSON(w, status, map[string]string{
		"detail": h.localizer.Get("", messageID, nil),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeSSE(w http.ResponseWriter, chunk models.StreamChunk) {
	data, err := json.Marshal(chunk)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
