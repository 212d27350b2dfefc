package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/apexgas/commerce/internal/ratelimit"
)

// CORSMiddleware answers preflight requests and reflects the origin
// when it is on the allow-list. An empty allow-list keeps the API
// same-origin only.
func CORSMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := false
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
			continue
		}
		if o != "" {
			origins[o] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := strings.TrimRight(c.GetHeader("Origin"), "/")
		if origin != "" {
			_, ok := origins[origin]
			if ok || allowAll {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
				c.Header("Access-Control-Max-Age", "600")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RateLimited throttles the wrapped route per client address. With no
// limiter configured every request passes.
func (s *Server) RateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := s.checkoutLimiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// A broken limiter backend should not take checkout down.
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(ratelimit.RetryAfterSeconds(res.RetryAfter)))
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
