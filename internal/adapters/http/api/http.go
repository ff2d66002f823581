// Package api exposes the heat leaderboard and game recommendations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/lottoheat/internal/adapters/http/swagger"
	"github.com/okian/lottoheat/internal/adapters/repository"
	service "github.com/okian/lottoheat/internal/app"
	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/internal/domain/types"
	"github.com/okian/lottoheat/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	defaultMaxHotLimit = 100
	defaultHotLimit    = 10
	maxBodyBytes       = 4 << 20

	backpressureRetryAfter = "1"
)

// Service is the application surface used by the handlers.
type Service interface {
	SubmitWin(ctx context.Context, sub types.WinSubmission) (model.WinRecord, error)
	Vote(ctx context.Context, winID string, up bool) (model.WinRecord, error)
	UpsertStores(ctx context.Context, stores []model.StoreLocation) (int, error)
	ReplaceGames(ctx context.Context, games []model.Game) error
	StoreHeat(ctx context.Context, storeID string) (model.StoreHeatScore, error)
	StoreRank(ctx context.Context, storeID string) (types.HotStore, error)
	HotStores(ctx context.Context, limit int, near *service.GeoFilter) ([]types.HotStore, error)
	Recommend(ctx context.Context, budget decimal.Decimal) (model.Recommendations, error)
	Analyze(ctx context.Context, gameID string, tickets int64, bankroll decimal.Decimal) (types.GameAnalysis, error)
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	svc           Service
	maxHotLimit   int
	submitLimiter *rate.Limiter
	logger        logger.Logger
}

// NewServer creates a server. Without WithSubmitRate, POST /wins is not
// rate limited.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{svc: svc, maxHotLimit: defaultMaxHotLimit}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Routes builds the router with every endpoint registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)

	r.Put("/stores", s.handleUpsertStores)
	r.Get("/stores/hot", s.handleHotStores)
	r.Get("/stores/{storeID}/heat", s.handleStoreHeat)
	r.Get("/stores/{storeID}/rank", s.handleStoreRank)

	r.Put("/games", s.handleReplaceGames)
	r.Get("/games/{gameID}/analysis", s.handleAnalyze)
	r.Get("/recommendations", s.handleRecommendations)

	r.With(s.rateLimit).Post("/wins", s.handleSubmitWin)
	r.Post("/wins/{winID}/votes", s.handleVote)

	swagger.Register(r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service and repository errors to a status code.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrStoreNotFound),
		errors.Is(err, repository.ErrGameNotFound),
		errors.Is(err, repository.ErrWinNotFound),
		errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrDuplicateWin):
		writeError(w, http.StatusConflict, "duplicate", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_cancelled", err)
	case errors.Is(err, service.ErrBackpressure):
		w.Header().Set("Retry-After", backpressureRetryAfter)
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrUnusableGame):
		writeError(w, http.StatusUnprocessableEntity, "unusable_game", err)
	case errors.Is(err, service.ErrInvalidWin),
		errors.Is(err, service.ErrInvalidStore),
		errors.Is(err, service.ErrInvalidGame),
		errors.Is(err, service.ErrInvalidBudget),
		errors.Is(err, service.ErrInvalidGeo),
		errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// decodeBody reads a JSON body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}
