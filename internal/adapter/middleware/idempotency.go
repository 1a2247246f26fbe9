package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	// upper bound on a handler holding the in-progress entry
	provisionalLockTTL = 60 * time.Second
	maxClockSkew       = 10 * time.Minute
)

// idempEntry is what Redis holds per request key: in progress, or the final
// status and body to replay.
type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// respRecorder tees the response so the final body can be stored.
type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

// IdempotencyMiddleware replays the first response of a mutating request.
// The key is method + route + the authenticated user + the lowercased
// Ax-Request-Id, so it must run after Authenticate. Ax-Request-At must be
// epoch (seconds or ms) or RFC3339 with a timezone. 5xx responses are
// released instead of stored so the client can retry with the same id.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) echo.MiddlewareFunc {
	store := replayStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			method := req.Method

			switch method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			rawID := req.Header.Get("Ax-Request-Id")
			if strings.TrimSpace(rawID) == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"message": "missing Ax-Request-Id"})
			}
			reqID, valid := canonicalRequestID(rawID)
			if !valid {
				return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid Ax-Request-Id format"})
			}

			reqAt, err := parseRequestAt(req.Header.Get("Ax-Request-At"))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
			}
			now := nowUTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return c.JSON(http.StatusBadRequest, map[string]string{"message": "Ax-Request-At too skewed"})
			}

			ident, authed := IdentityFrom(c)
			if !authed {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthenticated"})
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid body"})
				}
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			bhash := bodyHash(body)

			key := requestKey(method, c.Path(), ident.UserID, reqID)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			reserved, err := store.reserve(ctx, key, idempEntry{
				InProgress:  true,
				BodySHA256:  bhash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			})
			if err != nil {
				logger.Warn("idempotency reserve failed", "key", key, "err", err)
				return storeUnavailable(c)
			}
			if !reserved {
				return replay(ctx, c, store, logger, key, bhash)
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			if rec.code >= http.StatusInternalServerError {
				if err := store.release(context.Background(), key); err != nil {
					logger.Warn("idempotency entry release failed", "key", key, "err", err)
				}
				return nil
			}

			final := idempEntry{
				Code:        rec.code,
				Body:        rec.buf.Bytes(),
				BodySHA256:  bhash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			if err := store.finish(context.Background(), key, final); err != nil {
				logger.Warn("idempotency entry save failed", "key", key, "err", err)
			}
			return nil
		}
	}
}

// replay answers a request whose key is already taken.
func replay(ctx context.Context, c echo.Context, store replayStore, logger *slog.Logger, key, bhash string) error {
	cur, err := store.load(ctx, key)
	switch {
	case errors.Is(err, redis.Nil):
		// expired between reserve and load; the client may simply retry
		return c.JSON(http.StatusConflict, map[string]string{"message": "request is already in progress"})
	case errors.Is(err, errCorruptEntry):
		logger.Error("idempotency entry unreadable, releasing", "key", key, "err", err)
		if err := store.release(ctx, key); err != nil {
			logger.Warn("idempotency entry release failed", "key", key, "err", err)
		}
		return storeUnavailable(c)
	case err != nil:
		logger.Warn("idempotency entry load failed", "key", key, "err", err)
		return storeUnavailable(c)
	}

	if cur.BodySHA256 != bhash {
		return c.JSON(http.StatusConflict, map[string]string{"message": "Ax-Request-Id reused with different body"})
	}
	if !cur.InProgress && cur.Code != 0 {
		return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
	}
	return c.JSON(http.StatusConflict, map[string]string{"message": "request is already in progress"})
}

func storeUnavailable(c echo.Context) error {
	c.Response().Header().Set("Retry-After", "1")
	return c.JSON(http.StatusServiceUnavailable, map[string]string{"message": "idempotency store unavailable"})
}
