package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"loan-escrow/pkg/address"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "X-Idempotency-Key"
	HeaderRequestAt      = "X-Request-At"
	HeaderCallerAddress  = "X-Caller-Address"
	HeaderReplayed       = "Idempotent-Replayed"

	storeTimeout   = 2 * time.Second
	anonymousScope = "anonymous"
)

// captureWriter tees the response body so it can be stored for replay.
type captureWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type idempotency struct {
	store replayStore
	log   *zap.Logger
	now   func() time.Time
}

// IdempotencyMiddleware makes mutating requests safe to retry. A request is keyed by
// method, route, caller and X-Idempotency-Key; a repeat with the same body replays
// the stored response, a repeat with another body is refused. 5xx responses are
// not stored.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	m := &idempotency{
		store: replayStore{rdb: rdb, ttl: ttl},
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			return m.serve(c, next)
		}
	}
}

func (m *idempotency) serve(c echo.Context, next echo.HandlerFunc) error {
	req := c.Request()

	token := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
	if token == "" {
		return reject(c, http.StatusBadRequest, "missing "+HeaderIdempotencyKey)
	}
	if !validToken(token) {
		return reject(c, http.StatusBadRequest, "invalid "+HeaderIdempotencyKey+" format")
	}
	at, err := requestTime(req.Header.Get(HeaderRequestAt), m.now())
	if err != nil {
		return reject(c, http.StatusBadRequest, err.Error())
	}
	scope := anonymousScope
	if raw := strings.TrimSpace(req.Header.Get(HeaderCallerAddress)); raw != "" {
		if scope, err = address.Normalize(raw); err != nil {
			return reject(c, http.StatusBadRequest, "invalid "+HeaderCallerAddress)
		}
	}

	var body []byte
	if req.Body != nil {
		if body, err = io.ReadAll(req.Body); err != nil {
			return reject(c, http.StatusBadRequest, "unreadable body")
		}
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	hash := digest(body)
	key := requestKey{Method: req.Method, Route: c.Path(), Scope: scope, Token: token}.String()

	ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
	defer cancel()

	ok, err := m.store.reserve(ctx, key, replayEntry{Pending: true, BodyHash: hash, RequestAt: at, StoredAt: m.now()})
	if err != nil {
		m.log.Warn("idempotency store unavailable", zap.String("key", key), zap.Error(err))
		return reject(c, http.StatusServiceUnavailable, "idempotency store unavailable")
	}
	if !ok {
		return m.replay(ctx, c, key, hash)
	}

	w := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
	c.Response().Writer = w
	if err := next(c); err != nil {
		c.Error(err)
	}

	// The request context may already be gone; the store must still be settled.
	settle, cancelSettle := context.WithTimeout(context.Background(), storeTimeout)
	defer cancelSettle()
	if w.status >= http.StatusInternalServerError {
		if err := m.store.release(settle, key); err != nil {
			m.log.Warn("idempotency release failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	final := replayEntry{Status: w.status, Body: w.body.Bytes(), BodyHash: hash, RequestAt: at, StoredAt: m.now()}
	if err := m.store.complete(settle, key, final); err != nil {
		m.log.Warn("idempotency save failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (m *idempotency) replay(ctx context.Context, c echo.Context, key, hash string) error {
	cur, err := m.store.get(ctx, key)
	if err != nil && !errors.Is(err, errNoEntry) {
		m.log.Warn("idempotency entry load failed", zap.String("key", key), zap.Error(err))
	}
	if cur.BodyHash != "" && cur.BodyHash != hash {
		return reject(c, http.StatusConflict, HeaderIdempotencyKey+" reused with different body")
	}
	if cur.replayable() {
		c.Response().Header().Set(HeaderReplayed, "true")
		return c.Blob(cur.Status, echo.MIMEApplicationJSON, cur.Body)
	}
	return reject(c, http.StatusConflict, "request is already in progress")
}

func reject(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg, "code": "IdempotencyRejected"})
}
