package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	// How long the in-progress marker lives if the handler never finishes.
	provisionalLockTTL = 60 * time.Second
	maxIdempotencyKey  = 255
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	CreatedAt   time.Time `json:"created_at"`
}

type respRecorder struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *respRecorder) WriteHeader(statusCode int) {
	r.code = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Idempotency replays the stored response when a mutating request repeats
// an Idempotency-Key. Keys are scoped to the caller and the request path.
// Requests without the header, and every request when rdb is nil, pass
// through untouched. Server errors are not stored so the client may retry.
func Idempotency(rdb *redis.Client, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rdb == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			idemKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if idemKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(idemKey) > maxIdempotencyKey {
				response.BadRequest(w, "Idempotency-Key is too long", nil)
				return
			}

			var body []byte
			if r.Body != nil {
				var err error
				body, err = io.ReadAll(r.Body)
				if err != nil {
					response.BadRequest(w, "Failed to read request body", nil)
					return
				}
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			bhash := bodyHash(body)

			key := buildKey(r.Method, r.URL.Path, callerID(r), idemKey)
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			ok, err := provisionalSet(ctx, rdb, key, idempEntry{
				InProgress: true,
				BodySHA256: bhash,
				CreatedAt:  time.Now().UTC(),
			})
			if err != nil {
				slog.Error("idempotency store unavailable", "error", err)
				response.ServiceUnavailable(w, "IDEMPOTENCY_UNAVAILABLE", "Idempotency store unavailable")
				return
			}
			if !ok {
				cur, err := loadEntry(ctx, rdb, key)
				if err != nil {
					slog.Warn("failed to load idempotency entry", "key", key, "error", err)
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					response.ConflictWithCode(w, "IDEMPOTENCY_KEY_REUSED", "Idempotency-Key reused with a different body")
					return
				}
				if !cur.InProgress && cur.Code != 0 {
					replay(w, cur)
					return
				}
				response.ConflictWithCode(w, "REQUEST_IN_PROGRESS", "A request with this Idempotency-Key is already in progress")
				return
			}

			rec := &respRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rec, r)

			// detached from the request so a client disconnect does not
			// leave the key stuck in progress
			saveCtx, saveCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer saveCancel()

			if rec.code >= http.StatusInternalServerError {
				if err := rdb.Del(saveCtx, key).Err(); err != nil {
					slog.Warn("failed to clear idempotency key", "key", key, "error", err)
				}
				return
			}

			final := idempEntry{
				Code:        rec.code,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.buf.Bytes(),
				BodySHA256:  bhash,
				CreatedAt:   time.Now().UTC(),
			}
			if err := saveFinal(saveCtx, rdb, key, final, ttl); err != nil {
				slog.Warn("failed to store idempotent response", "key", key, "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, e idempEntry) {
	contentType := e.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(e.Code)
	_, _ = w.Write(e.Body)
}

func callerID(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "anonymous"
	}
	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id
	}
	return "anonymous"
}

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func buildKey(method, path, userID, idemKey string) string {
	return "idemp:" + strings.ToLower(method) + ":" + path + ":" + userID + ":" + idemKey
}

func provisionalSet(ctx context.Context, rdb *redis.Client, key string, entry idempEntry) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempEntry, error) {
	var e idempEntry
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET; report it as in progress
			return idempEntry{InProgress: true}, nil
		}
		return idempEntry{InProgress: true}, err
	}
	if err := json.Unmarshal(v, &e); err != nil {
		return idempEntry{InProgress: true}, err
	}
	return e, nil
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, entry idempEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}
