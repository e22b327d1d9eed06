package server

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/serisow/humanizer/bootstrap"
	"github.com/serisow/humanizer/config"
	"github.com/serisow/humanizer/handlers"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"
)

// SetupRoutes builds the router over an already normalized path space.
func SetupRoutes(h *handlers.HumanizerHandler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", h.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/models", h.Models).Methods(http.MethodGet)
	r.HandleFunc("/humanize", h.Humanize).Methods(http.MethodPost)
	r.HandleFunc("/detect", h.Detect).Methods(http.MethodPost)
	r.HandleFunc("/humanize_and_check", h.HumanizeAndCheck).Methods(http.MethodPost)

	// A known path with the wrong method is an unknown endpoint too.
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.NotFound)

	return r
}

// NewHandler assembles the middleware chain and router shared by the HTTP
// server and the Lambda entry point.
func NewHandler(services *bootstrap.Services, logger *slog.Logger) *negroni.Negroni {
	n := negroni.New()

	n.Use(newRecovery(logger))
	n.Use(newRequestLogger(logger))
	n.UseFunc(RequestID)
	n.UseFunc(CORS)
	n.Use(NewStripBasePaths(services.Config.BasePaths))

	n.UseHandler(SetupRoutes(handlers.NewHumanizerHandler(services, logger)))
	return n
}

// writeTimeout leaves room for the slowest request: two detections and a
// humanization, each call allowed every attempt.
func writeTimeout(cfg config.Config) time.Duration {
	attempts := cfg.InferenceMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	calls := 2 + 2*len(cfg.DetectorModels)
	perCall := cfg.InferenceTimeout + cfg.InferenceRetryDelay
	return time.Duration(calls*attempts)*perCall + 10*time.Second
}

func newServer(addr string, handler http.Handler, cfg config.Config) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout(cfg),
	}
}

// ServeProduction serves TLS with certificates obtained by autocert.
func ServeProduction(handler http.Handler, cfg config.Config, logger *slog.Logger) error {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// Port 80 answers ACME "http-01" challenges and redirects everything
	// else to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":80",
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil {
			logger.Error("ACME challenge server stopped", slog.String("error", err.Error()))
		}
	}()

	srv := newServer(":"+cfg.HTTPSPort, handler, cfg)
	srv.TLSConfig = &tls.Config{
		GetCertificate:   autocertManager.GetCertificate,
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	logger.Info("Starting production server", slog.String("addr", srv.Addr), slog.Any("domains", cfg.Domains))
	return srv.ListenAndServeTLS("", "")
}

// ServeDevelopment serves plain HTTP on HTTP_PORT.
func ServeDevelopment(handler http.Handler, cfg config.Config, logger *slog.Logger) error {
	srv := newServer(":"+cfg.HTTPPort, handler, cfg)
	logger.Info("Starting development server", slog.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
