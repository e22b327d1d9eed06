package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/serisow/humanizer/handlers"
	"github.com/serisow/humanizer/logging"
	"github.com/urfave/negroni"
)

const requestIDHeader = "X-Request-ID"

// CORS adds the permissive CORS headers to every response and answers
// OPTIONS requests with an empty 200.
func CORS(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	header := rw.Header()
	header.Set("Content-Type", "application/json")
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Headers", "Content-Type")
	header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

	if r.Method == http.MethodOptions {
		rw.WriteHeader(http.StatusOK)
		return
	}
	next(rw, r)
}

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	id := r.Header.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	rw.Header().Set(requestIDHeader, id)
	next(rw, r.WithContext(logging.WithRequestID(r.Context(), id)))
}

// StripBasePaths removes deployment prefixes and trailing slashes so that
// /api/humanize/ and /.netlify/functions/api/humanize reach /humanize.
type StripBasePaths struct {
	prefixes []string
}

func NewStripBasePaths(prefixes []string) *StripBasePaths {
	cleaned := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &StripBasePaths{prefixes: cleaned}
}

func (s *StripBasePaths) ServeHTTP(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	path := s.Normalize(r.URL.Path)
	if path != r.URL.Path {
		r2 := r.Clone(r.Context())
		r2.URL.Path = path
		r2.URL.RawPath = ""
		r = r2
	}
	next(rw, r)
}

// Normalize maps a request path onto the router's path space.
func (s *StripBasePaths) Normalize(path string) string {
	for _, prefix := range s.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			path = strings.TrimPrefix(path, prefix)
			break
		}
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "/"
	}
	return path
}

// jsonPanicFormatter hides panic details behind the generic 500 body.
type jsonPanicFormatter struct {
	logger *slog.Logger
}

func (f jsonPanicFormatter) FormatPanicError(rw http.ResponseWriter, r *http.Request, infos *negroni.PanicInformation) {
	f.logger.Error("Recovered from panic",
		slog.String("requestID", logging.RequestID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.Any("panic", infos.RecoveredPanic))
	handlers.InternalError(rw)
}

func newRecovery(logger *slog.Logger) *negroni.Recovery {
	recovery := negroni.NewRecovery()
	recovery.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelError)
	recovery.PrintStack = false
	recovery.Formatter = jsonPanicFormatter{logger: logger}
	return recovery
}

func newRequestLogger(logger *slog.Logger) *negroni.Logger {
	requestLogger := negroni.NewLogger()
	requestLogger.ALogger = slog.NewLogLogger(logger.Handler(), slog.LevelInfo)
	return requestLogger
}
