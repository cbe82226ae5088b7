package httpkit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"proposal_sync/platform/logger"
)

// NewEngine returns a gin engine with panic recovery, access logging,
// no-store headers and, when throttle is non-nil, per-client throttling.
func NewEngine(log *logger.Logger, throttle *ClientThrottle) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), AccessLog(log), NoStore())
	if throttle != nil {
		engine.Use(throttle.Middleware())
	}
	return engine
}

// AccessLog writes one line per request once the handler returns.
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		log.HTTPRequest(c.Request.Method, path, c.Writer.Status(), float64(time.Since(start).Milliseconds()), c.ClientIP())
	}
}

// NoStore marks responses as live JSON that must not be cached or sniffed.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

// ClientThrottle keeps one token bucket per client address.
type ClientThrottle struct {
	buckets sync.Map
	limit   rate.Limit
	burst   int
	log     *logger.Logger
}

// NewClientThrottle allows perSecond requests per client with the given burst.
func NewClientThrottle(perSecond float64, burst int, log *logger.Logger) *ClientThrottle {
	return &ClientThrottle{limit: rate.Limit(perSecond), burst: burst, log: log}
}

// Allow spends a token from ip's bucket.
func (t *ClientThrottle) Allow(ip string) bool {
	b, _ := t.buckets.LoadOrStore(ip, rate.NewLimiter(t.limit, t.burst))
	return b.(*rate.Limiter).Allow()
}

// Middleware answers 429 once a client runs out of tokens.
func (t *ClientThrottle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if t.Allow(ip) {
			c.Next()
			return
		}
		if t.log != nil {
			t.log.RateLimitExceeded(ip, c.Request.URL.Path)
		}
		Fail(c, http.StatusTooManyRequests, "too many requests")
	}
}
