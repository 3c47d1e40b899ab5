package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/httputil"
)

// limiterIdleTTL is how long an operator's limiter survives without requests.
const limiterIdleTTL = time.Hour

type rateLimiterStore struct {
	limiters sync.Map // map[uuid.UUID]*rateLimiterEntry
	rps      float64
	burst    int
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	mu         sync.Mutex
	lastAccess time.Time
}

// RateLimitMiddleware applies a token bucket per operator. It must run after
// AuthenticationMiddleware. Idle limiters are evicted until ctx is done.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &rateLimiterStore{rps: rps, burst: burst}
	go store.evictIdle(ctx, 5*time.Minute)

	return func(c *gin.Context) {
		operator, ok := GetOperator(c.Request.Context())
		if !ok {
			logger.Error("rate limit middleware: no authenticated operator in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		limiter := store.limiter(operator.ID)
		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := int(math.Ceil(reservation.Delay().Seconds()))
			reservation.Cancel()

			logger.Debug("rate limit exceeded",
				slog.String("operator_id", operator.ID.String()),
				slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, httputil.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Too many requests. Please retry after the specified delay.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (s *rateLimiterStore) limiter(operatorID uuid.UUID) *rate.Limiter {
	now := time.Now()
	value, _ := s.limiters.LoadOrStore(operatorID, &rateLimiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: now,
	})
	entry := value.(*rateLimiterEntry)
	entry.mu.Lock()
	entry.lastAccess = now
	entry.mu.Unlock()
	return entry.limiter
}

func (s *rateLimiterStore) evictIdle(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			threshold := time.Now().Add(-limiterIdleTTL)
			s.limiters.Range(func(key, value any) bool {
				entry := value.(*rateLimiterEntry)
				entry.mu.Lock()
				idle := entry.lastAccess.Before(threshold)
				entry.mu.Unlock()
				if idle {
					s.limiters.Delete(key)
				}
				return true
			})
		}
	}
}
