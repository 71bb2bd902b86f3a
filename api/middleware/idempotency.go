package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Digigit24/kumsserpbackend-sub001/api/responses"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	pkgredis "github.com/Digigit24/kumsserpbackend-sub001/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 128

	standardReplayTTL = 24 * time.Hour
	ledgerReplayTTL   = 7 * 24 * time.Hour
	inFlightTTL       = 2 * time.Minute
)

const (
	entryInFlight  = "in_flight"
	entryCompleted = "completed"
)

// keyedRoute is a method plus a path template where "*" stands for exactly one segment.
type keyedRoute struct {
	method   string
	segments []string
	ttl      time.Duration
}

func keyed(method, template string, ttl time.Duration) keyedRoute {
	return keyedRoute{method: method, segments: splitPath(template), ttl: ttl}
}

var keyedRoutes = []keyedRoute{
	keyed(http.MethodPost, "/api/v1/indents", standardReplayTTL),
	keyed(http.MethodPut, "/api/v1/inventory/*/items/*/thresholds", standardReplayTTL),
	keyed(http.MethodPost, "/api/v1/indents/*/issues", ledgerReplayTTL),
	keyed(http.MethodPost, "/api/v1/issues/*/receipt", ledgerReplayTTL),
	keyed(http.MethodPost, "/api/v1/inventory/*/items/*/adjust", ledgerReplayTTL),
}

type replayEntry struct {
	State       string `json:"state"`
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency makes keyed mutations safe to retry. The first request for a key
// reserves it, runs the handler and stores the reply; retries with the same
// body get that reply back, a different body or an unfinished first attempt
// is rejected. 5xx replies are not kept so the caller can try again.
func Idempotency(store pkgredis.ReplayStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := replayTTL(r.Method, r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := fingerprintRequest(r.Method, r.URL.Path, body)
			key := store.IdempotencyKey(callerScope(r), clientKey)

			reservation, _ := json.Marshal(replayEntry{State: entryInFlight, Fingerprint: fingerprint})
			reserved, err := store.SetNX(ctx, key, string(reservation), inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				replayExisting(w, r, store, key, fingerprint, logg)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				if delErr := store.Del(ctx, key); delErr != nil && logg != nil {
					logg.Error(ctx, "release idempotency key", delErr)
				}
				return
			}

			done, err := json.Marshal(replayEntry{
				State:       entryCompleted,
				Fingerprint: fingerprint,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err == nil {
				err = store.Set(ctx, key, string(done), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(logg.WithField(ctx, "idempotency_key", clientKey), "store idempotent reply", err)
			}
		})
	}
}

func replayExisting(w http.ResponseWriter, r *http.Request, store pkgredis.ReplayStore, key, fingerprint string, logg *logger.Logger) {
	ctx := r.Context()
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// reservation expired between SetNX and Get
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "idempotent request still settling, retry"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency key"))
		return
	}

	var entry replayEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency entry"))
		return
	}
	if entry.Fingerprint != fingerprint {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if entry.State != entryCompleted {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress"))
		return
	}

	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(entry.Status)
	_, _ = w.Write(entry.Body)
}

// callerScope keeps keys from colliding between users, sites and endpoints.
func callerScope(r *http.Request) string {
	return strings.Join([]string{
		UserIDFromContext(r.Context()),
		SiteIDFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}, "|")
}

func fingerprintRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func replayTTL(method, path string) (time.Duration, bool) {
	segments := splitPath(path)
	for _, route := range keyedRoutes {
		if route.method == method && route.matches(segments) {
			return route.ttl, true
		}
	}
	return 0, false
}

func (k keyedRoute) matches(segments []string) bool {
	if len(segments) != len(k.segments) {
		return false
	}
	for i, want := range k.segments {
		if want == "*" {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if segments[i] != want {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
