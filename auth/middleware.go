package auth

import (
	"log"
	"net/http"

	"github.com/dexten32/accuscanner/app/models"

	"github.com/gin-gonic/gin"
)

// Middleware enforces the session cookie and injects claims into the request
// context. Unauthenticated requests are rejected with 401 before any
// downstream middleware (plan gate, rate limiter) runs.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(SessionCookie)
		if err != nil || tokenString == "" {
			respondUnauthorized(c, "Access denied, token missing")
			return
		}

		claims, err := VerifyToken(secret, tokenString)
		if err != nil {
			log.Printf("auth failure: token invalid path=%s err=%v", c.Request.URL.Path, err)
			respondUnauthorized(c, "Invalid token")
			return
		}

		ctx := WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequirePlan allow-lists plans for a route group. The check is strict: a
// plan tag not in the list is denied even if it is a valid tier elsewhere,
// so newly introduced tiers stay excluded until a call site admits them.
func RequirePlan(allowed ...models.Plan) gin.HandlerFunc {
	allowedSet := make(map[models.Plan]struct{}, len(allowed))
	for _, p := range allowed {
		allowedSet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c.Request.Context())
		if !ok {
			respondUnauthorized(c, "Access denied, token missing")
			return
		}
		if _, ok := allowedSet[claims.Plan]; !ok {
			log.Printf("plan gate: access denied plan=%s path=%s", claims.Plan, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Access forbidden: Insufficient plan",
			})
			return
		}
		c.Next()
	}
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}
