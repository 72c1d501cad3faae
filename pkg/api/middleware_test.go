package api

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"specgraph/pkg/config"
)

// Test helpers
func createTestRequestCtx(method, path string, body []byte) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.SetRequestURI(path)
	req.Header.SetMethod(method)
	if body != nil {
		req.SetBody(body)
	}
	ctx.Init(&req, nil, nil)
	return &ctx
}

func createTestRequestCtxFrom(method, path, ip string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.SetRequestURI(path)
	req.Header.SetMethod(method)
	ctx.Init(&req, &net.TCPAddr{IP: net.ParseIP(ip), Port: 40000}, nil)
	return &ctx
}

func createTestLogger() (*zap.Logger, *observer.ObservedLogs) {
	observedZapCore, observedLogs := observer.New(zap.DebugLevel)
	return zap.New(observedZapCore), observedLogs
}

func createTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Middleware.CORS = config.CORSConfig{
		Enabled:      true,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       3600,
	}
	cfg.Middleware.Recovery = config.RecoveryConfig{Enabled: true, LogStack: true}
	return cfg
}

func decodeBody(t *testing.T, ctx *fasthttp.RequestCtx) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	return body
}

type testHandler struct {
	statusCode int
	response   []byte
	panicMsg   any
	calls      int
}

func (h *testHandler) handle(ctx *fasthttp.RequestCtx) {
	h.calls++
	if h.panicMsg != nil {
		panic(h.panicMsg)
	}
	if h.statusCode > 0 {
		ctx.SetStatusCode(h.statusCode)
	}
	if h.response != nil {
		ctx.SetBody(h.response)
	}
}

func TestStackOrder(t *testing.T) {
	var order []string
	mark := func(name string) MiddlewareFunc {
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
			return func(ctx *fasthttp.RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}

	stack := NewStack(mark("first"))
	stack.Use(mark("second")).Use(mark("third"))
	assert.Equal(t, 3, stack.Len())

	h := &testHandler{}
	stack.Apply(h.handle)(createTestRequestCtx("GET", "/", nil))

	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, 1, h.calls)
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id", func(t *testing.T) {
		var seen string
		handler := RequestID(true)(func(ctx *fasthttp.RequestCtx) {
			seen = requestID(ctx)
		})
		ctx := createTestRequestCtx("GET", "/", nil)
		handler(ctx)

		header := string(ctx.Response.Header.Peek("X-Request-ID"))
		assert.Equal(t, seen, header)
		_, err := uuid.Parse(header)
		assert.NoError(t, err)
	})

	t.Run("keeps an incoming id", func(t *testing.T) {
		ctx := createTestRequestCtx("GET", "/", nil)
		ctx.Request.Header.Set("X-Request-ID", "abc-123")
		RequestID(true)((&testHandler{}).handle)(ctx)
		assert.Equal(t, "abc-123", string(ctx.Response.Header.Peek("X-Request-ID")))
	})

	t.Run("disabled", func(t *testing.T) {
		ctx := createTestRequestCtx("GET", "/", nil)
		RequestID(false)((&testHandler{}).handle)(ctx)
		assert.Empty(t, ctx.Response.Header.Peek("X-Request-ID"))
	})
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{fasthttp.StatusOK, zap.InfoLevel},
		{fasthttp.StatusNotFound, zap.WarnLevel},
		{fasthttp.StatusInternalServerError, zap.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(fasthttp.StatusMessage(tt.status), func(t *testing.T) {
			logger, logs := createTestLogger()
			h := &testHandler{statusCode: tt.status}
			Logger(logger)(h.handle)(createTestRequestCtx("GET", "/specs", nil))

			entries := logs.FilterMessage("HTTP request").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, "/specs", entries[0].ContextMap()["path"])
			assert.Equal(t, int64(tt.status), entries[0].ContextMap()["status"])
		})
	}
}

func TestRecovery(t *testing.T) {
	logger, logs := createTestLogger()
	cfg := &config.RecoveryConfig{Enabled: true, LogStack: true}
	h := &testHandler{panicMsg: "boom"}

	ctx := createTestRequestCtx("GET", "/specs", nil)
	ctx.SetUserValue(keyRequestID, "req-1")
	ctx.SetBody([]byte("partial"))
	Recovery(logger, cfg)(h.handle)(ctx)

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	body := decodeBody(t, ctx)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "req-1", body["request_id"])

	entries := logs.FilterMessage("Panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].ContextMap()["panic"])
	assert.Contains(t, entries[0].ContextMap(), "stack_trace")
}

func TestRecoveryDisabled(t *testing.T) {
	logger, _ := createTestLogger()
	h := &testHandler{panicMsg: "boom"}
	handler := Recovery(logger, &config.RecoveryConfig{})(h.handle)

	assert.Panics(t, func() { handler(createTestRequestCtx("GET", "/", nil)) })
}

func TestCORS(t *testing.T) {
	t.Run("wildcard origin", func(t *testing.T) {
		cfg := createTestConfig().Middleware.CORS
		ctx := createTestRequestCtx("GET", "/specs", nil)
		ctx.Request.Header.Set("Origin", "https://example.com")
		h := &testHandler{}
		CORS(&cfg)(h.handle)(ctx)

		assert.Equal(t, "*", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
		assert.Equal(t, "GET, POST, OPTIONS", string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")))
		assert.Equal(t, "3600", string(ctx.Response.Header.Peek("Access-Control-Max-Age")))
		assert.Equal(t, 1, h.calls)
	})

	t.Run("specific origin", func(t *testing.T) {
		cfg := config.CORSConfig{Enabled: true, AllowOrigins: []string{"https://a.io"}, AllowCredentials: true}
		ctx := createTestRequestCtx("GET", "/specs", nil)
		ctx.Request.Header.Set("Origin", "https://a.io")
		CORS(&cfg)((&testHandler{}).handle)(ctx)

		assert.Equal(t, "https://a.io", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
		assert.Equal(t, "true", string(ctx.Response.Header.Peek("Access-Control-Allow-Credentials")))
	})

	t.Run("unknown origin", func(t *testing.T) {
		cfg := config.CORSConfig{Enabled: true, AllowOrigins: []string{"https://a.io"}}
		ctx := createTestRequestCtx("GET", "/specs", nil)
		ctx.Request.Header.Set("Origin", "https://b.io")
		CORS(&cfg)((&testHandler{}).handle)(ctx)

		assert.Empty(t, ctx.Response.Header.Peek("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		cfg := createTestConfig().Middleware.CORS
		h := &testHandler{}
		ctx := createTestRequestCtx("OPTIONS", "/specs", nil)
		CORS(&cfg)(h.handle)(ctx)

		assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
		assert.Zero(t, h.calls)
	})
}

func TestTimeoutDisabled(t *testing.T) {
	h := &testHandler{statusCode: fasthttp.StatusTeapot}
	ctx := createTestRequestCtx("GET", "/", nil)
	Timeout(&config.TimeoutConfig{Enabled: false, Duration: time.Second})(h.handle)(ctx)
	assert.Equal(t, fasthttp.StatusTeapot, ctx.Response.StatusCode())

	ctx = createTestRequestCtx("GET", "/", nil)
	Timeout(&config.TimeoutConfig{Enabled: true})(h.handle)(ctx)
	assert.Equal(t, 2, h.calls)
}

func TestRateLimit(t *testing.T) {
	cfg := &config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 2}
	h := &testHandler{}
	handler := RateLimit(cfg)(h.handle)

	for i := 0; i < 2; i++ {
		ctx := createTestRequestCtxFrom("GET", "/specs", "10.0.0.1")
		handler(ctx)
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	}

	ctx := createTestRequestCtxFrom("GET", "/specs", "10.0.0.1")
	handler(ctx)
	assert.Equal(t, fasthttp.StatusTooManyRequests, ctx.Response.StatusCode())
	assert.Equal(t, "1", string(ctx.Response.Header.Peek("Retry-After")))
	assert.Equal(t, "rate limit exceeded", decodeBody(t, ctx)["error"])

	// other clients keep their own bucket
	ctx = createTestRequestCtxFrom("GET", "/specs", "10.0.0.2")
	handler(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 3, h.calls)
}

func TestLimiterStoreSweepsIdleClients(t *testing.T) {
	store := newLimiterStore(1, 1)
	now := time.Now()

	assert.True(t, store.allow("a", now))
	assert.Equal(t, 1, store.size())

	later := now.Add(store.ttl + time.Minute)
	assert.True(t, store.allow("b", later))
	assert.Equal(t, 1, store.size())
}

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuth(t *testing.T) {
	const secret = "0123456789abcdef0123"
	logger, _ := createTestLogger()
	cfg := &config.AuthConfig{Enabled: true, Secret: secret, Issuer: "specgraph"}

	var subject any
	handler := Auth(cfg, logger, HealthPath)(func(ctx *fasthttp.RequestCtx) {
		subject = ctx.UserValue(keySubject)
	})

	valid := jwt.RegisteredClaims{
		Subject:   "ops",
		Issuer:    "specgraph",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	otherIssuer := valid
	otherIssuer.Issuer = "someone-else"

	tests := []struct {
		name   string
		header string
		path   string
		status int
		error  string
	}{
		{"valid token", "Bearer " + signToken(t, secret, valid, jwt.SigningMethodHS256), "/specs", fasthttp.StatusOK, ""},
		{"missing header", "", "/specs", fasthttp.StatusUnauthorized, "missing bearer token"},
		{"wrong scheme", "Basic abc", "/specs", fasthttp.StatusUnauthorized, "missing bearer token"},
		{"expired", "Bearer " + signToken(t, secret, expired, jwt.SigningMethodHS256), "/specs", fasthttp.StatusUnauthorized, "invalid bearer token"},
		{"wrong secret", "Bearer " + signToken(t, "another-secret-of-length", valid, jwt.SigningMethodHS256), "/specs", fasthttp.StatusUnauthorized, "invalid bearer token"},
		{"wrong algorithm", "Bearer " + signToken(t, secret, valid, jwt.SigningMethodHS512), "/specs", fasthttp.StatusUnauthorized, "invalid bearer token"},
		{"wrong issuer", "Bearer " + signToken(t, secret, otherIssuer, jwt.SigningMethodHS256), "/specs", fasthttp.StatusUnauthorized, "invalid bearer token"},
		{"health is open", "", HealthPath, fasthttp.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject = nil
			ctx := createTestRequestCtx("GET", tt.path, nil)
			if tt.header != "" {
				ctx.Request.Header.Set("Authorization", tt.header)
			}
			handler(ctx)

			assert.Equal(t, tt.status, ctx.Response.StatusCode())
			if tt.error != "" {
				assert.Equal(t, tt.error, decodeBody(t, ctx)["error"])
				assert.NotEmpty(t, ctx.Response.Header.Peek("WWW-Authenticate"))
				assert.Nil(t, subject)
			}
		})
	}

	t.Run("subject is exposed", func(t *testing.T) {
		ctx := createTestRequestCtx("GET", "/specs", nil)
		ctx.Request.Header.Set("Authorization", "Bearer "+signToken(t, secret, valid, jwt.SigningMethodHS256))
		handler(ctx)
		assert.Equal(t, "ops", subject)
	})
}

func TestMetrics(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	cfg := &config.MetricsConfig{Enabled: true, Path: "/__metrics"}

	handler := Metrics(cfg, collector)(func(ctx *fasthttp.RequestCtx) {
		ctx.SetUserValue(keyRoute, "/specs/{id}")
		ctx.SetStatusCode(fasthttp.StatusOK)
	})
	handler(createTestRequestCtx("GET", "/specs/a", nil))
	handler(createTestRequestCtx("GET", "/specs/b", nil))

	unmatched := Metrics(cfg, collector)(func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	})
	unmatched(createTestRequestCtx("GET", "/nope", nil))

	m := collector.GetMetrics()
	counters := m["request_counter"].(map[string]int64)
	assert.Equal(t, int64(2), counters["GET /specs/{id} 200"])
	assert.Equal(t, int64(1), counters["GET unmatched 404"])
	assert.Equal(t, int64(0), m["active_connections"])

	latency := m["latency"].(map[string]map[string]any)
	assert.Equal(t, int64(2), latency["GET /specs/{id}"]["count"])
}

func TestMetricsDisabled(t *testing.T) {
	collector := NewDefaultMetricsCollector()
	h := &testHandler{}
	Metrics(&config.MetricsConfig{}, collector)(h.handle)(createTestRequestCtx("GET", "/", nil))

	assert.Equal(t, 1, h.calls)
	assert.Empty(t, collector.GetMetrics()["request_counter"])
}
