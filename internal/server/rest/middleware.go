package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/logging"
	"github.com/dmitrijs2005/foodgram/internal/server/metrics"
	"github.com/dmitrijs2005/foodgram/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const (
	identityKey ctxKey = "identity"
	loggerKey   ctxKey = "logger"
)

// accessLog attaches a request scoped logger and writes one line per request.
func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := s.logger.With("request_id", chimiddleware.GetReqID(r.Context()))
		ctx := context.WithValue(r.Context(), loggerKey, l)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		l.Info(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func (s *HTTPServer) log(ctx context.Context) logging.Logger {
	if l, ok := ctx.Value(loggerKey).(logging.Logger); ok {
		return l
	}
	return s.logger
}

// recordMetrics labels requests by route pattern, never by raw path.
func (s *HTTPServer) recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}

// authenticate resolves the Authorization header into an Identity. Requests
// without the header stay anonymous; a header with a bad token is rejected.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthHeaderName)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || (scheme != common.AuthSchemeToken && scheme != common.AuthSchemeBearer) || token == "" {
			writeDetail(w, http.StatusUnauthorized, "Invalid token header.")
			return
		}

		id, err := s.svc.Users.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identityFrom(r.Context()); !ok {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFrom(ctx context.Context) (*services.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*services.Identity)
	return id, ok && id != nil
}

// viewerID is the caller's user id or common.AnonymousUserID.
func viewerID(ctx context.Context) int64 {
	if id, ok := identityFrom(ctx); ok {
		return id.UserID
	}
	return common.AnonymousUserID
}
