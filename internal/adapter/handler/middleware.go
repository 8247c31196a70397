package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rl1809/storefront/internal/adapter/metrics"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	requestIDHeader    = "X-Request-ID"
	browserTokenHeader = "X-Browser-Token"
)

type ctxKey int

const (
	requestInfoKey ctxKey = iota
	storefrontKey
)

// requestInfo is filled in as the request moves through the middleware chain
// and read back by the logger once the handler returns.
type requestInfo struct {
	id        string
	browserID string
}

func infoFrom(ctx context.Context) *requestInfo {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info
	}
	return &requestInfo{id: "unknown"}
}

func storefrontFrom(ctx context.Context) *service.Storefront {
	sf, _ := ctx.Value(storefrontKey).(*service.Storefront)
	return sf
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestInfoKey, &requestInfo{id: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggerMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			info := infoFrom(r.Context())
			event := logger.Info()
			if recorder.Status() >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("request_id", info.id).
				Str("browser_id", info.browserID).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Int("status", recorder.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}

func recoverMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error().
						Str("request_id", infoFrom(r.Context()).id).
						Str("panic", fmt.Sprintf("%v", err)).
						Bytes("stack", debug.Stack()).
						Msg("handler panic")
					writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func metricsMiddleware(m *metrics.Prometheus) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.Requests.WithLabelValues(route, strconv.Itoa(recorder.Status())).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}

// browserMiddleware attaches the caller's Storefront. Requests without a
// token get a fresh browser whose token is returned in X-Browser-Token.
func (h *HTTPHandler) browserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var browserID string
		if raw := bearerToken(r); raw != "" {
			id, err := h.tokens.Parse(raw)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid browser token"})
				return
			}
			browserID = id
		} else {
			id, token, err := h.tokens.NewBrowser()
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			browserID = id
			w.Header().Set(browserTokenHeader, token)
		}

		sf, err := h.browsers.Open(r.Context(), browserID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		infoFrom(r.Context()).browserID = browserID

		ctx := context.WithValue(r.Context(), storefrontKey, sf)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	fields := strings.Fields(r.Header.Get("Authorization"))
	if len(fields) != 2 || !strings.EqualFold(fields[0], "bearer") {
		return ""
	}
	return fields[1]
}
