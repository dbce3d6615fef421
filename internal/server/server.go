package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"
)

// Config wires the server's collaborators together. Handlers hang off it as
// methods so tests can assemble partial configs with fakes.
type Config struct {
	Addr string // e.g. ":8080"

	DB    *sql.DB
	Auth  Authenticator
	Blobs BlobStore

	// Assets is built from DB and Blobs by New when left nil; tests inject
	// a Lifecycle over fakes instead.
	Assets *Lifecycle

	// CORSOrigin is the single browser origin allowed to call the API.
	// Empty disables the CORS headers entirely.
	CORSOrigin string

	// MaxUploadBytes caps the upload request body. Zero means no limit.
	MaxUploadBytes int64
}

type Server struct {
	httpServer *http.Server
}

func New(cfg Config) *Server {
	if cfg.Assets == nil && cfg.DB != nil {
		cfg.Assets = newLifecycle(newPGImageStore(cfg.DB), cfg.Blobs)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", cfg.healthHandler())

	mux.HandleFunc("/register", cfg.registerHandler())
	mux.HandleFunc("/login", cfg.loginHandler())
	mux.HandleFunc("/logout", cfg.logoutHandler())
	mux.Handle("/verify", cfg.verifyHandler())

	mux.Handle("/upload", cfg.uploadHandler())
	mux.Handle("/images", cfg.listImagesHandler())
	mux.Handle("/images/", cfg.deleteImageHandler())
	mux.Handle("/uploads/", cfg.serveImageHandler())

	// Wrap middleware: requestID -> logging -> cors -> mux
	var handler http.Handler = mux
	handler = corsMiddleware(cfg.CORSOrigin, handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{httpServer: s}
}

// Handler exposes the composed handler for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler is a readiness probe: the process is up and the database
// answers a trivial query.
func (cfg Config) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			var one int
			if err := cfg.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "not_ready",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
