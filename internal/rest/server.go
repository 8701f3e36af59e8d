// Package rest serves entity states over HTTP in the shape of Home
// Assistant's REST API, plus a manual refresh trigger and Prometheus
// metrics.
//
// Routes:
//
//	GET  /api/states              every entity
//	GET  /api/states/{entity_id}  a single entity
//	POST /api/refresh             poll the provider now (rate limited)
//	GET  /metrics                 Prometheus exposition
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/tejusbharadwaj/foenergy/internal/models"
)

// StateReader gives read access to the entity registry
type StateReader interface {
	States() []models.EntityState
	State(entityID string) (models.EntityState, bool)
}

// Refresher triggers an immediate poll
type Refresher interface {
	Refresh(ctx context.Context)
}

// ServerConfig holds configuration options for the HTTP server
type ServerConfig struct {
	CacheSize      int           // Size of the LRU response cache
	RateLimit      float64       // Manual refreshes per second
	RateLimitBurst int           // Maximum burst of manual refreshes
	RefreshTimeout time.Duration // Upper bound for a manual refresh
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		CacheSize:      64,
		RateLimit:      1.0 / 60, // one manual refresh per minute
		RateLimitBurst: 1,
		RefreshTimeout: 30 * time.Second,
	}
}

type Server struct {
	states    StateReader
	refresher Refresher
	gatherer  prometheus.Gatherer
	cfg       ServerConfig
	cache     *lru.Cache
	// generation is bumped on every purge so responses built before a
	// purge are not cached after it
	generation atomic.Uint64
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

func NewServer(states StateReader, refresher Refresher, gatherer prometheus.Gatherer, cfg ServerConfig, logger *logrus.Logger) (*Server, error) {
	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultServerConfig().RefreshTimeout
	}
	return &Server{
		states:    states,
		refresher: refresher,
		gatherer:  gatherer,
		cfg:       cfg,
		cache:     cache,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		logger:    logger,
	}, nil
}

// Purge drops every cached response. It is called whenever an entity
// changes.
func (s *Server) Purge() {
	s.generation.Add(1)
	s.cache.Purge()
}

// Handler returns the routed, gzip-enabled handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/states", s.handleStates)
	mux.HandleFunc("GET /api/states/{entity_id}", s.handleState)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return s.logging(gziphandler.GzipHandler(mux))
}

// haState mirrors the state objects returned by Home Assistant
type haState struct {
	EntityID    string                 `json:"entity_id"`
	State       string                 `json:"state"`
	Attributes  map[string]interface{} `json:"attributes"`
	LastChanged time.Time              `json:"last_changed"`
	LastUpdated time.Time              `json:"last_updated"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func toHAState(state models.EntityState) haState {
	attributes := make(map[string]interface{}, len(state.Attributes)+5)
	for k, v := range state.Attributes {
		attributes[k] = v
	}
	attributes["friendly_name"] = state.Name
	attributes["unit_of_measurement"] = state.UnitOfMeasurement
	attributes["device_class"] = state.DeviceClass
	attributes["state_class"] = state.StateClass
	attributes["icon"] = state.Icon

	return haState{
		EntityID:    state.EntityID,
		State:       state.StateString(),
		Attributes:  attributes,
		LastChanged: state.LastUpdated,
		LastUpdated: state.LastUpdated,
	}
}

func toHAStates(states []models.EntityState) []haState {
	out := make([]haState, 0, len(states))
	for _, state := range states {
		out = append(out, toHAState(state))
	}
	return out
}

func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r.URL.Path, func() (interface{}, int) {
		return toHAStates(s.states.States()), http.StatusOK
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	entityID := r.PathValue("entity_id")
	s.serveCached(w, r.URL.Path, func() (interface{}, int) {
		state, ok := s.states.State(entityID)
		if !ok {
			return errorResponse{Message: "Entity not found."}, http.StatusNotFound
		}
		return toHAState(state), http.StatusOK
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Message: "rate limit exceeded"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RefreshTimeout)
	defer cancel()
	s.refresher.Refresh(ctx)

	writeJSON(w, http.StatusOK, toHAStates(s.states.States()))
}

// serveCached answers from the cache when possible. Only successful
// responses are cached.
func (s *Server) serveCached(w http.ResponseWriter, key string, build func() (interface{}, int)) {
	if cached, ok := s.cache.Get(key); ok {
		writeBody(w, http.StatusOK, cached.([]byte))
		return
	}

	generation := s.generation.Load()
	value, status := build()
	body, err := json.Marshal(value)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if status == http.StatusOK && s.generation.Load() == generation {
		s.cache.Add(key, body)
	}
	writeBody(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	body, err := json.Marshal(value)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Debug("HTTP request")
	})
}
