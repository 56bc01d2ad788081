package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/guttosm/tradejournal/internal/domain/dto"
)

// idleAfter is how long a client may stay silent before its limiter is dropped.
const idleAfter = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type visitors struct {
	mu        sync.Mutex
	perMinute int
	byIP      map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func newVisitors(perMinute int) *visitors {
	return &visitors{perMinute: perMinute, byIP: make(map[string]*visitor), now: time.Now}
}

func (v *visitors) allow(ip string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if now.Sub(v.lastSweep) > idleAfter {
		for k, c := range v.byIP {
			if now.Sub(c.lastSeen) > idleAfter {
				delete(v.byIP, k)
			}
		}
		v.lastSweep = now
	}

	c, ok := v.byIP[ip]
	if !ok {
		every := rate.Every(time.Minute / time.Duration(v.perMinute))
		c = &visitor{limiter: rate.NewLimiter(every, v.perMinute)}
		v.byIP[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// RateLimiter limits each client IP to perMinute requests per minute with a
// token bucket (burst of perMinute). perMinute <= 0 disables limiting.
//
// Response when the limit is exceeded:
//
//	HTTP/1.1 429 Too Many Requests
//	{"message": "rate limit exceeded", "timestamp": "..."}
func RateLimiter(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	v := newVisitors(perMinute)
	return func(c *gin.Context) {
		if !v.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate limit exceeded", nil))
			return
		}
		c.Next()
	}
}
