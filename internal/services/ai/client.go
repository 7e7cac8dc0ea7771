package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cp-ai-assist-go/internal/config"
	"github.com/cp-ai-assist-go/internal/middleware"
	"github.com/cp-ai-assist-go/internal/models"
	"github.com/sirupsen/logrus"
)

// ModelCallError wraps any provider or network failure from a model call.
// Callers treat it as opaque; provider payloads are not interpreted upstream.
type ModelCallError struct {
	Err error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call failed: %v", e.Err)
}

func (e *ModelCallError) Unwrap() error {
	return e.Err
}

// ChatRequest is a single model invocation.
type ChatRequest struct {
	Messages    []models.Message
	ModelID     string
	Temperature float64
}

// Service represents the model collaborator interface
type Service interface {
	GetResponse(ctx context.Context, req ChatRequest) (string, error)
	GetAvailableModels() []ModelOption
	GetModelByID(modelID string) (*ModelOption, error)
}

// ModelOption represents a model option with endpoint info
type ModelOption struct {
	ID           string
	Name         string
	EndpointName string
	MaxTokens    int
}

// Client talks to OpenAI-compatible chat-completions endpoints.
type Client struct {
	config     *config.ModelsConfig
	endpoints  map[string]*config.ModelEndpoint
	models     map[string]*ModelOption
	httpClient *http.Client
	metrics    *middleware.Metrics
	logger     *logrus.Logger
}

// NewClient creates a new model client from the configured endpoints.
func NewClient(cfg *config.ModelsConfig, metrics *middleware.Metrics, logger *logrus.Logger) Service {
	endpoints := make(map[string]*config.ModelEndpoint)
	modelOpts := make(map[string]*ModelOption)

	logger.WithField("endpointCount", len(cfg.Endpoints)).Info("Loading model endpoints")

	// Build lookup maps
	for i := range cfg.Endpoints {
		endpoint := &cfg.Endpoints[i]
		endpoints[endpoint.Name] = endpoint

		logger.WithFields(logrus.Fields{
			"endpoint": endpoint.Name,
			"baseURL":  endpoint.BaseURL,
			"models":   len(endpoint.Models),
		}).Info("Loading endpoint")

		for j := range endpoint.Models {
			model := &endpoint.Models[j]
			modelOpts[model.ID] = &ModelOption{
				ID:           model.ID,
				Name:         model.Name,
				EndpointName: endpoint.Name,
				MaxTokens:    model.MaxTokens,
			}
		}
	}

	logger.WithField("totalModels", len(modelOpts)).Info("Model client initialized")

	return &Client{
		config:    cfg,
		endpoints: endpoints,
		models:    modelOpts,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// GetResponse gets a model response with retry logic. Retries live here, at
// the collaborator boundary; the router above never retries.
func (s *Client) GetResponse(ctx context.Context, req ChatRequest) (string, error) {
	const maxRetries = 3
	var lastErr error
	start := time.Now()

	for attempt := 1; attempt <= maxRetries; attempt++ {
		response, err := s.getResponseOnce(ctx, req, attempt)
		if err == nil {
			s.metrics.RecordModelRequest(req.ModelID, "success", time.Since(start))
			return response, nil
		}

		lastErr = err
		s.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
			"modelID": req.ModelID,
		}).Warn("Model request failed, retrying...")

		if !isRetryable(err) {
			break
		}

		if attempt < maxRetries {
			// Exponential backoff: 2s, 4s, 8s
			waitTime := time.Duration(2<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				s.metrics.RecordModelRequest(req.ModelID, "error", time.Since(start))
				return "", &ModelCallError{Err: ctx.Err()}
			case <-time.After(waitTime):
				// Continue to next retry
			}
		}
	}

	s.metrics.RecordModelRequest(req.ModelID, "error", time.Since(start))
	return "", &ModelCallError{Err: lastErr}
}

// clientError marks a 4xx response that should not be retried.
type clientError struct {
	err error
}

func (e *clientError) Error() string { return e.err.Error() }

func isRetryable(err error) bool {
	if _, ok := err.(*clientError); ok {
		return false
	}
	return true
}

// getResponseOnce performs a single request attempt
func (s *Client) getResponseOnce(ctx context.Context, req ChatRequest, attempt int) (string, error) {
	modelOption, err := s.GetModelByID(req.ModelID)
	if err != nil {
		s.logger.WithError(err).WithField("modelID", req.ModelID).Error("Model not found")
		return "", &clientError{err: err}
	}

	endpoint, exists := s.endpoints[modelOption.EndpointName]
	if !exists {
		s.logger.WithField("endpointName", modelOption.EndpointName).Error("Endpoint not found")
		return "", &clientError{err: fmt.Errorf("endpoint not found: %s", modelOption.EndpointName)}
	}

	// Convert messages to OpenAI format
	openAIMessages := make([]map[string]string, len(req.Messages))
	for i, msg := range req.Messages {
		openAIMessages[i] = map[string]string{
			"role":    msg.Role,
			"content": msg.Content,
		}
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	// Build request
	reqBody := map[string]interface{}{
		"model":       req.ModelID,
		"messages":    openAIMessages,
		"max_tokens":  modelOption.MaxTokens,
		"temperature": temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	// Create HTTP request with a timeout context for this specific attempt
	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(endpoint.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", endpoint.APIKey))

	s.logger.WithFields(logrus.Fields{
		"model":    req.ModelID,
		"endpoint": endpoint.Name,
		"url":      url,
		"attempt":  attempt,
	}).Debug("Sending model request")

	// Send request
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"status":  resp.StatusCode,
			"body":    string(body),
			"attempt": attempt,
		}).Error("Model request failed")

		// Don't retry for client errors (4xx)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", &clientError{err: fmt.Errorf("model request failed with client error %d: %s", resp.StatusCode, string(body))}
		}

		return "", fmt.Errorf("model request failed with status %d: %s", resp.StatusCode, string(body))
	}

	// Parse response
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error.Message != "" {
		return "", fmt.Errorf("model error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from model")
	}

	return result.Choices[0].Message.Content, nil
}

// GetAvailableModels returns all available models
func (s *Client) GetAvailableModels() []ModelOption {
	out := make([]ModelOption, 0, len(s.models))
	for _, model := range s.models {
		out = append(out, *model)
	}
	return out
}

// GetModelByID returns a model by its ID
func (s *Client) GetModelByID(modelID string) (*ModelOption, error) {
	model, exists := s.models[modelID]
	if !exists {
		return nil, fmt.Errorf("model not found: %s", modelID)
	}
	return model, nil
}
