// Package http provides the HTTP server infrastructure.
package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/ports"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/usecases"
	"github.com/0xcro3dile/ledgerchat-go/internal/infrastructure/logger"
)

//go:embed templates/*
var templatesFS embed.FS

// maxBodyBytes bounds a chat request body.
const maxBodyBytes = 4 << 10

// Server is the HTTP server for the chat API and UI.
type Server struct {
	chat      *usecases.ChatUseCase
	ledger    ports.Ledger
	log       ports.Logger
	templates *template.Template
	addr      string
}

// NewServer creates a new HTTP server.
func NewServer(chat *usecases.ChatUseCase, ledger ports.Ledger, log ports.Logger, addr string) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Server{
		chat:      chat,
		ledger:    ledger,
		log:       log,
		templates: tmpl,
		addr:      addr,
	}, nil
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// UI
	mux.HandleFunc("GET /{$}", s.handleIndex)

	// API
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleResetSession)
	mux.HandleFunc("GET /api/companies", s.handleCompanies)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.Info("http", "server starting", map[string]interface{}{"addr": s.addr})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleIndex renders the chat UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	companies, err := s.ledger.DistinctCompanies(r.Context())
	if err != nil {
		s.internalError(w, "listing companies failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", map[string]interface{}{
		"Companies": len(companies),
	}); err != nil {
		s.log.Error("http", "rendering index failed", map[string]interface{}{"error": err.Error()})
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type chatResponse struct {
	SessionID string   `json:"session_id"`
	Answer    string   `json:"answer"`
	Intent    string   `json:"intent"`
	Companies []string `json:"companies"`
	Years     []int    `json:"years"`
	Field     string   `json:"field"`
}

// handleChat answers one turn. JSON and form bodies are both accepted.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req chatRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		req.SessionID = r.FormValue("session_id")
		req.Query = r.FormValue("query")
	}

	if req.SessionID != "" {
		if _, err := uuid.Parse(req.SessionID); err != nil {
			writeError(w, http.StatusBadRequest, "session_id must be a UUID")
			return
		}
	}

	resp, err := s.chat.Chat(r.Context(), &entities.ChatRequest{
		SessionID: req.SessionID,
		Query:     req.Query,
	})
	if errors.Is(err, usecases.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, "query required")
		return
	}
	if err != nil {
		s.internalError(w, "chat turn failed", err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: resp.SessionID,
		Answer:    resp.Answer,
		Intent:    string(resp.Intent),
		Companies: nonNil(resp.Companies),
		Years:     nonNilInts(resp.Years),
		Field:     string(resp.Field),
	})
}

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	Companies []string  `json:"companies"`
	Years     []int     `json:"years"`
	Field     string    `json:"field"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// handleSession returns what a session currently remembers.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.chat.Memory(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: conv.ID,
		Companies: nonNil(conv.Companies),
		Years:     nonNilInts(conv.Years),
		Field:     string(conv.Field),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	})
}

// handleResetSession forgets a session's memory.
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	s.chat.Reset(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleCompanies lists the companies in the ledger.
func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.ledger.DistinctCompanies(r.Context())
	if err != nil {
		s.internalError(w, "listing companies failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"companies": nonNil(companies)})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.log.Error("http", msg, map[string]interface{}{"error": err.Error()})
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("http", "request", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
