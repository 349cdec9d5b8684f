// Package server exposes the routing service over HTTP. It is a thin
// boundary: decode the request, pick the path, delegate, encode the
// outcome. All failures come back as {"detail": "..."} JSON.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/concierge-labs/concierge/pkg/errorsx"
	"github.com/concierge-labs/concierge/pkg/logging"
	"github.com/concierge-labs/concierge/pkg/rag"
	"github.com/concierge-labs/concierge/pkg/router"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

// Options configures the HTTP boundary.
type Options struct {
	Router         *router.Router
	Pipeline       *rag.Pipeline
	Registry       *tooling.Registry
	UploadDir      string
	MediaDir       string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server wires the request router, the document pipeline and the tool
// registry behind HTTP endpoints.
type Server struct {
	router    *router.Router
	pipeline  *rag.Pipeline
	registry  *tooling.Registry
	uploadDir string
	mediaDir  string
	origins   []string
	logger    *slog.Logger
}

func New(opts Options) *Server {
	return &Server{
		router:    opts.Router,
		pipeline:  opts.Pipeline,
		registry:  opts.Registry,
		uploadDir: opts.UploadDir,
		mediaDir:  opts.MediaDir,
		origins:   opts.AllowedOrigins,
		logger:    logging.Component(opts.Logger, "server"),
	}
}

// Handler returns the fully routed HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /upload_pdf", s.handleUploadPDF)
	mux.HandleFunc("POST /voice_chat", s.handleVoiceChat)
	mux.HandleFunc("POST /upload_csv", s.handleUploadCSV)
	mux.HandleFunc("POST /query_csv", s.handleQueryCSV)
	mux.HandleFunc("POST /create_calendar_event", s.handleCreateCalendarEvent)
	mux.Handle("GET /audio/", http.StripPrefix("/audio/", http.FileServer(http.Dir(s.mediaDir))))
	return s.cors(mux)
}

// cors applies the allow-list. The Access-Control-Allow-Origin header
// carries a single origin or "*", so a configured allow-list is matched
// against the request's Origin and echoed back, never joined.
func (s *Server) cors(next http.Handler) http.Handler {
	allowAll := len(s.origins) == 0
	allowed := make(map[string]bool, len(s.origins))
	for _, origin := range s.origins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encode response", slog.String("error", err.Error()))
	}
}

// writeDetail reports a failure in the {"detail": msg} shape.
func (s *Server) writeDetail(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"detail": msg})
}

// writeError maps a kinded error to an HTTP status and the detail shape.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errorsx.KindOf(err) {
	case errorsx.KindSchemaValidation, errorsx.KindMalformedToolInput, errorsx.KindUnknownTool:
		status = http.StatusBadRequest
	case errorsx.KindToolNotAllowed:
		status = http.StatusForbidden
	}
	s.writeDetail(w, status, err.Error())
}
