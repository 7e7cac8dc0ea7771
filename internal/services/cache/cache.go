package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cp-ai-assist-go/internal/config"
	"github.com/cp-ai-assist-go/internal/models"
	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Service defines answer-cache operations
type Service interface {
	Get(ctx context.Context, question, model string) (string, bool)
	Set(ctx context.Context, question, model, answer string) error
	Clear(ctx context.Context) error
}

// NewService creates an answer cache with the configured backend. A disabled
// cache still satisfies the interface and never hits.
func NewService(cfg *config.Config, logger *logrus.Logger) (Service, error) {
	if !cfg.Cache.Enabled {
		return &memoryCache{enabled: false}, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		return newRedisCache(cfg, logger)
	case "memory":
		return newMemoryCache(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Cache.Backend)
	}
}

// generateKey creates a unique cache key
func generateKey(question, model string) string {
	data := fmt.Sprintf("%s:%s", model, question)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// memoryCache is the go-cache backed answer cache.
type memoryCache struct {
	enabled bool
	cache   *gocache.Cache
	logger  *logrus.Logger
	maxSize int
}

func newMemoryCache(cfg *config.Config, logger *logrus.Logger) *memoryCache {
	return &memoryCache{
		enabled: true,
		cache:   gocache.New(cfg.Cache.TTL, cfg.Cache.TTL*2),
		logger:  logger,
		maxSize: cfg.Cache.MaxSize,
	}
}

func (c *memoryCache) Get(ctx context.Context, question, model string) (string, bool) {
	if !c.enabled {
		return "", false
	}

	key := generateKey(question, model)
	if val, found := c.cache.Get(key); found {
		entry := val.(*models.CacheEntry)
		c.logger.WithFields(logrus.Fields{
			"model": model,
			"age":   time.Since(entry.CreatedAt),
		}).Debug("Cache hit")
		return entry.Answer, true
	}

	return "", false
}

func (c *memoryCache) Set(ctx context.Context, question, model, answer string) error {
	if !c.enabled {
		return nil
	}

	// Check cache size
	if c.cache.ItemCount() >= c.maxSize {
		c.logger.Warn("Cache size limit reached, clearing old entries")
		c.cache.DeleteExpired()
	}

	key := generateKey(question, model)
	entry := &models.CacheEntry{
		Question:  question,
		Answer:    answer,
		Model:     model,
		CreatedAt: time.Now(),
	}

	c.cache.SetDefault(key, entry)
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	c.cache.Flush()
	c.logger.Info("Cache cleared")
	return nil
}

// redisCache is the redis backed answer cache.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func newRedisCache(cfg *config.Config, logger *logrus.Logger) (*redisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisCache{
		client: client,
		ttl:    cfg.Cache.TTL,
		logger: logger,
	}, nil
}

func (c *redisCache) Get(ctx context.Context, question, model string) (string, bool) {
	key := fmt.Sprintf("answer:%s", generateKey(question, model))
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Redis cache get failed")
		return "", false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return "", false
	}

	return entry.Answer, true
}

func (c *redisCache) Set(ctx context.Context, question, model, answer string) error {
	entry := models.CacheEntry{
		Question:  question,
		Answer:    answer,
		Model:     model,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("answer:%s", generateKey(question, model))
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *redisCache) Clear(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}
