package api

import (
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/prevozkop/backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type authMiddleware struct {
	responder Responder
	origins   originAllowList
}

func newAuthMiddleware(debug bool, allowedOrigins []string) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()
	return authMiddleware{
		responder: NewResponder(logger, debug),
		origins:   newOriginAllowList(allowedOrigins),
	}
}

// checkOrigin refuses state-changing admin requests whose Origin is neither
// allow-listed nor this host. Requests without an Origin pass through.
func (m authMiddleware) checkOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if origin != "" && !m.origins.allows(origin) && !sameHost(origin, r.Host) {
			log.Warn().Str("origin", origin).Str("path", r.URL.Path).Msg("Rejected cross-site admin request")
			m.responder.WriteError(w, errs.ForbiddenOrigin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originAllowList matches origins exactly. Wildcard entries are ignored.
type originAllowList map[string]struct{}

func newOriginAllowList(origins []string) originAllowList {
	list := make(originAllowList, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || strings.Contains(o, "*") {
			continue
		}
		list[o] = struct{}{}
	}
	return list
}

func (l originAllowList) allows(origin string) bool {
	_, ok := l[origin]
	return ok
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	return err == nil && u.Host != "" && strings.EqualFold(u.Host, host)
}

// requireAuth short-circuits with 401 unless the session carries an admin.
func (m authMiddleware) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ctxIsAdmin(r.Context()) {
			m.responder.WriteError(w, errs.Unauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminFallback answers unknown admin routes and wrong methods. Anonymous
// callers get 401 so the admin surface is not enumerable.
func (m authMiddleware) adminFallback(w http.ResponseWriter, r *http.Request) {
	if !ctxIsAdmin(r.Context()) {
		m.responder.WriteError(w, errs.Unauthorized)
		return
	}
	m.responder.WriteError(w, errs.NewNotFoundError("Admin route not found"))
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func LogInternalServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				// Write 500 if nothing written yet
				if !srw.wroteHeader {
					srw.Header().Set("Content-Type", "application/json; charset=utf-8")
					srw.WriteHeader(http.StatusInternalServerError)
					srw.Write([]byte(`{"error":"Internal server error"}` + "\n"))
				}
			}
		}()

		next.ServeHTTP(srw, r)

		if srw.status == http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("500 error response")
		}
	})
}

// ColoredHTTPLoggingMiddleware logs every request at a level chosen by its status class.
func ColoredHTTPLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		next.ServeHTTP(srw, r)

		var logEvent *zerolog.Event
		switch {
		case srw.status >= 500:
			logEvent = log.Error()
		case srw.status >= 400:
			logEvent = log.Warn()
		default:
			logEvent = log.Info()
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP Request")
	})
}

// corsMiddleware echoes allowed origins with credentials. Every OPTIONS request
// ends here with 204, whether or not its origin is allowed. An empty list
// allows no origin at all.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := newOriginAllowList(allowedOrigins)
	headers := cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return origins.allows(origin)
		},
		AllowedMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials:   true,
		OptionsPassthrough: true,
	})

	return func(next http.Handler) http.Handler {
		preflight := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
		return headers(preflight)
	}
}

// stripPrefix removes the API prefix when the path carries it. Paths without
// it are routed unchanged, so the API works both behind /api and at the root.
func stripPrefix(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if prefix == "" || prefix == "/" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path != prefix && !strings.HasPrefix(path, prefix+"/") {
				next.ServeHTTP(w, r)
				return
			}

			rest := strings.TrimPrefix(path, prefix)
			if rest == "" {
				rest = "/"
			}
			r2 := new(http.Request)
			*r2 = *r
			r2.URL = new(url.URL)
			*r2.URL = *r.URL
			r2.URL.Path = rest
			r2.URL.RawPath = ""
			next.ServeHTTP(w, r2)
		})
	}
}
