package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"

	"ms-reporting/internal/config"
	"ms-reporting/internal/logger"
)

const scanBatch = 100

// ResponseCache memoizes successful JSON responses in Redis, keyed by path and
// query string. A nil *ResponseCache is valid and caches nothing.
type ResponseCache struct {
	Client *redis.Client
	Prefix string
	Logger *logger.Logger
}

// New connects to Redis. It returns a nil cache when cfg.Addr is empty.
func New(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*ResponseCache, error) {
	if cfg.Addr == "" {
		log.Info("CACHE", "REDIS_ADDR not set, response cache disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	log.Info("CACHE", fmt.Sprintf("✅ Response cache connected to %s (DB: %d)", cfg.Addr, cfg.DB))
	return NewWithClient(client, cfg.Prefix, log), nil
}

func NewWithClient(client *redis.Client, prefix string, log *logger.Logger) *ResponseCache {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ResponseCache{Client: client, Prefix: prefix, Logger: log}
}

// Key is the cache key of a request. url.Values.Encode sorts by parameter name,
// so parameter order does not split entries.
func (c *ResponseCache) Key(r *http.Request) string {
	key := c.Prefix + r.URL.Path
	if q := r.URL.Query().Encode(); q != "" {
		key += "?" + q
	}
	return key
}

// Middleware serves GET requests from the cache and stores 200 responses for ttl.
// Redis failures degrade to an uncached request.
func (c *ResponseCache) Middleware(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == nil || ttl <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := c.Key(r)
			body, err := c.Client.Get(r.Context(), key).Bytes()
			switch {
			case err == nil:
				c.Logger.LogCache("HIT", key, fmt.Sprintf("%d bytes", len(body)))
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				w.Write(body)
				return
			case !errors.Is(err, redis.Nil):
				c.Logger.Warn("CACHE", fmt.Sprintf("Cache read failed for %s: %v", key, err))
			}

			var buf bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			w.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(ww, r)

			if ww.Status() != http.StatusOK || buf.Len() == 0 {
				return
			}
			if err := c.Client.Set(r.Context(), key, buf.Bytes(), ttl).Err(); err != nil {
				c.Logger.Warn("CACHE", fmt.Sprintf("Cache write failed for %s: %v", key, err))
				return
			}
			c.Logger.LogCache("STORE", key, fmt.Sprintf("ttl %s", ttl))
		})
	}
}

// Flush removes every entry under the cache prefix and returns how many were
// removed. The keyspace is scanned to the end before anything is deleted, so
// deletions never move the scan cursor.
func (c *ResponseCache) Flush(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}

	var (
		cursor uint64
		keys   []string
	)
	seen := make(map[string]struct{})
	for {
		page, next, err := c.Client.Scan(ctx, cursor, c.Prefix+"*", scanBatch).Result()
		if err != nil {
			return 0, fmt.Errorf("scan %s*: %w", c.Prefix, err)
		}
		for _, k := range page {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	removed := 0
	for start := 0; start < len(keys); start += scanBatch {
		end := start + scanBatch
		if end > len(keys) {
			end = len(keys)
		}
		n, err := c.Client.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			return removed, fmt.Errorf("delete cached responses: %w", err)
		}
		removed += int(n)
	}

	c.Logger.LogCache("FLUSH", c.Prefix+"*", fmt.Sprintf("%d entries removed", removed))
	return removed, nil
}

func (c *ResponseCache) Close() error {
	if c == nil {
		return nil
	}
	return c.Client.Close()
}
