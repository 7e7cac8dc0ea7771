package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/cp-ai-assist-go/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Allow(clientID string) bool
	Reset(clientID string)
}

// ClientRateLimiter implements per-client token-bucket rate limiting,
// keyed by the caller's address.
type ClientRateLimiter struct {
	enabled         bool
	limiters        map[string]*rate.Limiter
	mu              sync.RWMutex
	rpm             int
	burst           int
	logger          *logrus.Logger
	cleanupInterval time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg *config.Config, logger *logrus.Logger) RateLimiter {
	if !cfg.RateLimit.Enabled {
		return &ClientRateLimiter{enabled: false}
	}

	rl := &ClientRateLimiter{
		enabled:         true,
		limiters:        make(map[string]*rate.Limiter),
		rpm:             cfg.RateLimit.RequestsPerMinute,
		burst:           cfg.RateLimit.Burst,
		logger:          logger,
		cleanupInterval: 1 * time.Hour,
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// Allow checks if a client is allowed to make a request
func (r *ClientRateLimiter) Allow(clientID string) bool {
	if !r.enabled {
		return true
	}

	limiter := r.getLimiter(clientID)
	allowed := limiter.Allow()

	if !allowed {
		r.logger.WithFields(logrus.Fields{
			"client": clientID,
		}).Warn("Rate limit exceeded")
	}

	return allowed
}

// Reset resets the rate limiter for a client
func (r *ClientRateLimiter) Reset(clientID string) {
	if !r.enabled {
		return
	}

	r.mu.Lock()
	delete(r.limiters, clientID)
	r.mu.Unlock()
}

// getLimiter gets or creates a rate limiter for a client
func (r *ClientRateLimiter) getLimiter(clientID string) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[clientID]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	// Create new limiter
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := r.limiters[clientID]; exists {
		return limiter
	}

	// Rate per second = RPM / 60
	rps := float64(r.rpm) / 60.0
	limiter = rate.NewLimiter(rate.Limit(rps), r.burst)
	r.limiters[clientID] = limiter

	return limiter
}

// cleanup removes inactive limiters
func (r *ClientRateLimiter) cleanup() {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		if len(r.limiters) > 10000 { // Arbitrary threshold
			r.logger.Warn("Rate limiter map size exceeded threshold, clearing")
			r.limiters = make(map[string]*rate.Limiter)
		}
		r.mu.Unlock()
	}
}

// SecurityMiddleware provides request input checks
type SecurityMiddleware struct {
	maxQuestionLen int
	logger         *logrus.Logger
}

// NewSecurityMiddleware creates security middleware
func NewSecurityMiddleware(maxQuestionLen int, logger *logrus.Logger) *SecurityMiddleware {
	if maxQuestionLen <= 0 {
		maxQuestionLen = 4096
	}
	return &SecurityMiddleware{
		maxQuestionLen: maxQuestionLen,
		logger:         logger,
	}
}

// ValidateQuestion checks the question text before it is routed.
func (s *SecurityMiddleware) ValidateQuestion(text string) error {
	if text == "" {
		return fmt.Errorf("question is required")
	}
	if len(text) > s.maxQuestionLen {
		return fmt.Errorf("question too long: %d bytes", len(text))
	}
	return nil
}
