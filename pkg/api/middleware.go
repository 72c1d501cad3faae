package api

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"specgraph/pkg/config"
)

// User value keys shared between middleware and handlers
const (
	keyRequestID = "request_id"
	keyRoute     = "route"
	keySubject   = "subject"
)

// MiddlewareFunc is the type of function for FastHTTP middleware
type MiddlewareFunc func(next fasthttp.RequestHandler) fasthttp.RequestHandler

// Stack represents a stack of middleware
type Stack struct {
	middlewares []MiddlewareFunc
	mu          sync.RWMutex
}

// NewStack creates a new middleware stack with optional initial middlewares
func NewStack(middlewares ...MiddlewareFunc) *Stack {
	stack := &Stack{
		middlewares: make([]MiddlewareFunc, len(middlewares)),
	}
	copy(stack.middlewares, middlewares)
	return stack
}

// Use adds a middleware to the stack
func (s *Stack) Use(middleware MiddlewareFunc) *Stack {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = append(s.middlewares, middleware)
	return s
}

// Len returns the number of middlewares in the stack
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.middlewares)
}

// Apply wraps handler so the first middleware added runs first
func (s *Stack) Apply(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := handler
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		result = s.middlewares[i](result)
	}
	return result
}

func passthrough(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return next
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if id, ok := ctx.UserValue(keyRequestID).(string); ok {
		return id
	}
	return ""
}

// writeJSONError writes {"error": message} plus extra fields
func writeJSONError(ctx *fasthttp.RequestCtx, status int, message string, extra map[string]any) {
	body := map[string]any{"error": message}
	for k, v := range extra {
		body[k] = v
	}
	if id := requestID(ctx); id != "" {
		body["request_id"] = id
	}

	data, err := json.Marshal(body)
	if err != nil {
		data = []byte(`{"error":"Internal server error"}`)
		status = fasthttp.StatusInternalServerError
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
}

// RequestID middleware generates and injects unique request IDs. An
// incoming X-Request-ID header is kept.
func RequestID(enabled bool) MiddlewareFunc {
	if !enabled {
		return passthrough
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			id := string(ctx.Request.Header.Peek("X-Request-ID"))
			if id == "" {
				id = uuid.New().String()
			}
			ctx.SetUserValue(keyRequestID, id)
			ctx.Response.Header.Set("X-Request-ID", id)

			next(ctx)
		}
	}
}

// Logger middleware logs every request once it has been served
func Logger(logger *zap.Logger) MiddlewareFunc {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()

			next(ctx)

			status := ctx.Response.StatusCode()
			fields := []zap.Field{
				zap.String("method", string(ctx.Method())),
				zap.String("path", string(ctx.Path())),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", ctx.RemoteAddr().String()),
				zap.Int("response_size", len(ctx.Response.Body())),
			}
			if id := requestID(ctx); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}

			switch {
			case status >= 500:
				logger.Error("HTTP request", fields...)
			case status >= 400:
				logger.Warn("HTTP request", fields...)
			default:
				logger.Info("HTTP request", fields...)
			}
		}
	}
}

// Recovery middleware turns a handler panic into a 500 response
func Recovery(logger *zap.Logger, recoveryCfg *config.RecoveryConfig) MiddlewareFunc {
	if !recoveryCfg.Enabled {
		return passthrough
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				stack := make([]byte, 4096)
				stack = stack[:runtime.Stack(stack, false)]

				fields := []zap.Field{
					zap.Any("panic", r),
					zap.String("method", string(ctx.Method())),
					zap.String("path", string(ctx.Path())),
				}
				if id := requestID(ctx); id != "" {
					fields = append(fields, zap.String("request_id", id))
				}
				if recoveryCfg.LogStack {
					fields = append(fields, zap.ByteString("stack_trace", stack))
				}
				logger.Error("Panic recovered", fields...)

				if recoveryCfg.PrintStack {
					fmt.Printf("Panic: %v\nStack trace:\n%s\n", r, stack)
				}

				ctx.ResetBody()
				writeJSONError(ctx, fasthttp.StatusInternalServerError, "Internal server error", nil)
			}()

			next(ctx)
		}
	}
}

// CORS middleware handles Cross-Origin Resource Sharing
func CORS(corsCfg *config.CORSConfig) MiddlewareFunc {
	if !corsCfg.Enabled {
		return passthrough
	}

	methods := strings.Join(corsCfg.AllowMethods, ", ")
	headers := strings.Join(corsCfg.AllowHeaders, ", ")

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			origin := string(ctx.Request.Header.Peek("Origin"))

			allowed := ""
			for _, o := range corsCfg.AllowOrigins {
				if o == "*" || o == origin {
					allowed = o
					break
				}
			}

			if allowed != "" {
				if allowed == "*" {
					ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
				} else {
					ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
					ctx.Response.Header.Add("Vary", "Origin")
				}
				if methods != "" {
					ctx.Response.Header.Set("Access-Control-Allow-Methods", methods)
				}
				if headers != "" {
					ctx.Response.Header.Set("Access-Control-Allow-Headers", headers)
				}
				if corsCfg.AllowCredentials {
					ctx.Response.Header.Set("Access-Control-Allow-Credentials", "true")
				}
				if corsCfg.MaxAge > 0 {
					ctx.Response.Header.Set("Access-Control-Max-Age", strconv.Itoa(corsCfg.MaxAge))
				}
			}

			if ctx.IsOptions() {
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}

			next(ctx)
		}
	}
}

// Timeout middleware answers 408 when the handler runs longer than the
// configured duration
func Timeout(timeoutCfg *config.TimeoutConfig) MiddlewareFunc {
	if !timeoutCfg.Enabled || timeoutCfg.Duration <= 0 {
		return passthrough
	}

	msg := fmt.Sprintf(`{"error":"Request timeout","timeout":%q}`, timeoutCfg.Duration)
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return fasthttp.TimeoutHandler(next, timeoutCfg.Duration, msg)
	}
}

// limiterStore keeps one token bucket per client key
type limiterStore struct {
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastSweep time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	return &limiterStore{
		limit:     rate.Limit(rps),
		burst:     burst,
		ttl:       10 * time.Minute,
		limiters:  make(map[string]*limiterEntry),
		lastSweep: time.Now(),
	}
}

func (s *limiterStore) allow(key string, now time.Time) bool {
	s.mu.Lock()
	if now.Sub(s.lastSweep) > s.ttl {
		for k, e := range s.limiters {
			if now.Sub(e.lastAccess) > s.ttl {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastAccess = now
	s.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimit middleware limits requests per client IP with a token bucket
func RateLimit(rlCfg *config.RateLimitConfig) MiddlewareFunc {
	if !rlCfg.Enabled {
		return passthrough
	}

	store := newLimiterStore(rlCfg.RequestsPerSecond, rlCfg.Burst)
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if !store.allow(ctx.RemoteIP().String(), time.Now()) {
				ctx.Response.Header.Set("Retry-After", "1")
				writeJSONError(ctx, fasthttp.StatusTooManyRequests, "rate limit exceeded", nil)
				return
			}
			next(ctx)
		}
	}
}

// Auth middleware requires an HS256 bearer token signed with the configured
// secret. Requests to the paths in skip are let through.
func Auth(authCfg *config.AuthConfig, logger *zap.Logger, skip ...string) MiddlewareFunc {
	if !authCfg.Enabled {
		return passthrough
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if authCfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(authCfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(authCfg.Secret)

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			path := string(ctx.Path())
			for _, p := range skip {
				if p == path {
					next(ctx)
					return
				}
			}

			header := string(ctx.Request.Header.Peek("Authorization"))
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
				writeJSONError(ctx, fasthttp.StatusUnauthorized, "missing bearer token", nil)
				return
			}

			claims := &jwt.RegisteredClaims{}
			if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
				return key, nil
			}); err != nil {
				logger.Debug("Rejected bearer token", zap.Error(err), zap.String("path", path))
				ctx.Response.Header.Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				writeJSONError(ctx, fasthttp.StatusUnauthorized, "invalid bearer token", nil)
				return
			}

			ctx.SetUserValue(keySubject, claims.Subject)
			next(ctx)
		}
	}
}

// MetricsCollector interface for collecting HTTP metrics
type MetricsCollector interface {
	IncRequestCounter(method, route string, status int)
	ObserveLatency(method, route string, duration time.Duration)
	IncActiveConnections()
	DecActiveConnections()
}

type latency struct {
	count int64
	total time.Duration
	max   time.Duration
}

// DefaultMetricsCollector keeps request counters in memory
type DefaultMetricsCollector struct {
	requestCounter    map[string]int64
	latencies         map[string]*latency
	activeConnections int64
	mu                sync.RWMutex
}

// NewDefaultMetricsCollector creates a new default metrics collector
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		requestCounter: make(map[string]int64),
		latencies:      make(map[string]*latency),
	}
}

// IncRequestCounter increments the request counter
func (m *DefaultMetricsCollector) IncRequestCounter(method, route string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCounter[fmt.Sprintf("%s %s %d", method, route, status)]++
}

// ObserveLatency records request latency
func (m *DefaultMetricsCollector) ObserveLatency(method, route string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := method + " " + route
	l, ok := m.latencies[key]
	if !ok {
		l = &latency{}
		m.latencies[key] = l
	}
	l.count++
	l.total += duration
	if duration > l.max {
		l.max = duration
	}
}

// IncActiveConnections increments active connection count
func (m *DefaultMetricsCollector) IncActiveConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeConnections++
}

// DecActiveConnections decrements active connection count
func (m *DefaultMetricsCollector) DecActiveConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeConnections--
}

// GetMetrics returns a snapshot of the counters
func (m *DefaultMetricsCollector) GetMetrics() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.requestCounter))
	for k, v := range m.requestCounter {
		counters[k] = v
	}
	latencies := make(map[string]map[string]any, len(m.latencies))
	for k, l := range m.latencies {
		latencies[k] = map[string]any{
			"count": l.count,
			"avg":   (l.total / time.Duration(l.count)).String(),
			"max":   l.max.String(),
		}
	}

	return map[string]any{
		"request_counter":    counters,
		"active_connections": m.activeConnections,
		"latency":            latencies,
	}
}

// Metrics middleware collects HTTP request metrics keyed by route pattern
func Metrics(metricsCfg *config.MetricsConfig, collector MetricsCollector) MiddlewareFunc {
	if !metricsCfg.Enabled || collector == nil {
		return passthrough
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()

			collector.IncActiveConnections()
			defer collector.DecActiveConnections()

			next(ctx)

			method := string(ctx.Method())
			route, ok := ctx.UserValue(keyRoute).(string)
			if !ok {
				route = "unmatched"
			}
			collector.IncRequestCounter(method, route, ctx.Response.StatusCode())
			collector.ObserveLatency(method, route, time.Since(start))
		}
	}
}
