package middleware

import (
	"encoding/json"
	"log"
	"math"
	"mwu-go/internal/security"
	"net/http"
	"strconv"
	"time"

	"github.com/woodchen-ink/go-web-utils/iputil"
)

// RateLimitMiddleware 按客户端限流，超限返回 429
type RateLimitMiddleware struct {
	limiter *security.ClientLimiter
}

func NewRateLimitMiddleware(limiter *security.ClientLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := iputil.GetClientIP(r)

		allowed, wait := m.limiter.Allow(clientIP)
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := int(math.Ceil(wait.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		log.Printf("[Security] 限流: %s %s (retry after %ds)", clientIP, r.URL.Path, retryAfter)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":               "Too many requests",
			"retry_after_seconds": retryAfter,
			"retry_at":            time.Now().Add(time.Duration(retryAfter) * time.Second).Format(time.RFC3339),
		})
	})
}
