package app

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dexten32/accuscanner/app/models"
	"github.com/dexten32/accuscanner/auth"

	"github.com/gin-gonic/gin"
)

const rateWindow = time.Minute

// RateLimitError reports a denied request along with the applicable limit so
// the caller can back off.
type RateLimitError struct {
	Plan  models.Plan
	Limit int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. You are on the %s plan which allows %d requests per minute. Upgrade for more.", e.Plan, e.Limit)
}

type rateWindowState struct {
	count       int
	windowStart time.Time
}

// RateLimiter counts requests per user in a fixed one-minute window. State is
// in-memory and lost on restart; rate limiting here is best-effort, not a
// security boundary.
type RateLimiter struct {
	mu    sync.Mutex
	users map[string]*rateWindowState
	now   func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		users: make(map[string]*rateWindowState),
		now:   time.Now,
	}
}

// Admit records one request for userID and returns a *RateLimitError when the
// plan's per-minute budget is already spent. A denied request does not
// increment the counter or extend the window.
func (rl *RateLimiter) Admit(userID string, plan models.Plan) error {
	limit := LimitsFor(plan).RateLimit

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	st, ok := rl.users[userID]
	if !ok {
		st = &rateWindowState{windowStart: now}
		rl.users[userID] = st
	}

	if now.Sub(st.windowStart) > rateWindow {
		st.count = 0
		st.windowStart = now
	}

	if st.count >= limit {
		return &RateLimitError{Plan: plan, Limit: limit}
	}

	st.count++
	return nil
}

// RateLimitMiddleware gates a route group by the authenticated user's plan.
// It must run after auth.Middleware so unauthenticated requests get a 401
// before touching any counter.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if err := rl.Admit(claims.UserID, claims.Plan); err != nil {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}

		c.Next()
	}
}
