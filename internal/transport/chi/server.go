package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/domain"
	"github.com/campusqa/askd/internal/logger"
	"github.com/campusqa/askd/internal/usecase/answer"
	healthuc "github.com/campusqa/askd/internal/usecase/health"
)

// Asker produces answers in buffered or streaming form.
type Asker interface {
	Answer(ctx context.Context, question, email string) (answer.Response, error)
	AnswerStream(ctx context.Context, question, email string) (<-chan string, error)
}

// Searcher runs raw semantic queries.
type Searcher interface {
	Query(ctx context.Context, text string, n int) ([]domain.QueryMatch, error)
}

// Historian reads and clears conversation history.
type Historian interface {
	List(ctx context.Context, email string) ([]domain.Turn, error)
	Clear(ctx context.Context, email string) (int64, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	asker         Asker
	search        Searcher
	history       Historian
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	asker Asker,
	search Searcher,
	history Historian,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		asker:   asker,
		search:  search,
		history: history,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuestion, http.StatusBadRequest, codeEmptyQuestion),
		sentinelHandler(domain.ErrMissingEmail, http.StatusBadRequest, codeMissingEmail),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrCompletionProvider, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusBadGateway, codeIndexUnavailable),
		sentinelHandler(domain.ErrPersistence, http.StatusInternalServerError, codePersistenceError),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/ask", s.Ask)
	r.Post("/api/search", s.Search)
	r.Get("/api/history", s.GetHistory)
	r.Delete("/api/history", s.DeleteHistory)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Ask handles POST /api/ask. With ?stream=true the answer is written as
// chunked plain text; otherwise a JSON payload with the search listing.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if r.URL.Query().Get("stream") == "true" {
		s.askStreaming(w, r, req)
		return
	}

	resp, err := s.asker.Answer(r.Context(), req.Question, req.Email)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponseFromDomain(resp))
}

func (s *Server) askStreaming(w http.ResponseWriter, r *http.Request, req askRequest) {
	ch, err := s.asker.AnswerStream(r.Context(), req.Question, req.Email)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	flusher, _ := w.(http.Flusher)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for chunk := range ch {
		if _, err := w.Write([]byte(chunk)); err != nil {
			// Client gone. The producer observes the request context and
			// stops on its own; drain so the goroutine can finish.
			for range ch {
			}
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Missing query")
		return
	}

	matches, err := s.search.Query(r.Context(), req.Query, req.NResults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: searchResultsFromMatches(matches)})
}

// GetHistory handles GET /api/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	turns, err := s.history.List(r.Context(), email)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if turns == nil {
		turns = []domain.Turn{}
	}
	writeJSON(w, http.StatusOK, historyResponse{History: turns})
}

// DeleteHistory handles DELETE /api/history. The email comes in the body.
func (s *Server) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	var req deleteHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if _, err := s.history.Clear(r.Context(), req.Email); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Chat history cleared successfully"})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuestion,
		domain.ErrMissingEmail,
		domain.ErrEmbeddingProvider,
		domain.ErrCompletionProvider,
		domain.ErrIndexUnavailable,
		domain.ErrPersistence,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.From(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
