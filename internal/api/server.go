package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"slotnik/internal/access"
	"slotnik/internal/config"
	"slotnik/internal/engine"
	"slotnik/internal/metrics"
	"slotnik/internal/slotstore"

	"github.com/rs/zerolog"
)

// Server is the HTTP binding of the booking operation surface.
type Server struct {
	cfg    config.APIConfig
	eng    *engine.Engine
	gate   *access.Gate
	auth   *HTTPAuth
	server *http.Server
	logger *zerolog.Logger
}

func NewServer(cfg config.APIConfig, eng *engine.Engine, gate *access.Gate, logger *zerolog.Logger) *Server {
	srv := &Server{cfg: cfg, eng: eng, gate: gate, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/bookings/export", srv.handleExport)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingByID)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/availability", srv.handleAvailability)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the composed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlePropose(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.Allow(IdentityFrom(r.Context()), access.OpPropose); err != nil {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req engine.ProposeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.eng.Propose(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	// Only the id goes back; contact details are never echoed.
	writeJSON(w, http.StatusCreated, map[string]string{"booking_id": id})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.Allow(IdentityFrom(r.Context()), access.OpListActive); err != nil {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	bookings, err := s.eng.ListActive(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.handleGet(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost:
		s.handleSetStatus(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "cancel" && r.Method == http.MethodPost:
		s.handleCancel(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.gate.Allow(IdentityFrom(r.Context()), access.OpGetBooking); err != nil {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	booking, err := s.eng.Get(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.gate.Allow(IdentityFrom(r.Context()), access.OpSetStatus); err != nil {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.eng.SetStatus(r.Context(), id, body.Status)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, id string) {
	identity := IdentityFrom(r.Context())
	if err := s.gate.Allow(identity, access.OpCancel); err != nil {
		// Clients may cancel their own booking; everyone else is denied
		// before the store is touched.
		if identity.Role != access.RoleClient || identity.Email == "" {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}
		booking, gerr := s.eng.Get(r.Context(), id)
		if gerr != nil {
			s.writeEngineError(w, gerr)
			return
		}
		if cerr := s.gate.CanCancel(identity, booking); cerr != nil {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}
	}

	if err := s.eng.Cancel(r.Context(), id); err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.gate.Allow(IdentityFrom(r.Context()), access.OpAvailability); err != nil {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	busy, err := s.eng.Availability(r.Context(), days)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"busy": busy})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
// Storage failures are logged in full and surfaced generically.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var verrs engine.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": verrs})
		return
	}

	switch {
	case errors.Is(err, engine.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot is already booked")
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, engine.ErrPastSlot):
		writeError(w, http.StatusBadRequest, "slot is in the past")
	case errors.Is(err, engine.ErrTooFarAhead):
		writeError(w, http.StatusBadRequest, "slot is too far in the future")
	case errors.Is(err, engine.ErrCancelledTerminal):
		writeError(w, http.StatusConflict, "cancelled bookings cannot change status")
	case errors.Is(err, slotstore.ErrUnavailable):
		s.logger.Error().Err(err).Msg("slot store failure")
		writeError(w, http.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		s.logger.Error().Err(err).Msg("unhandled engine error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
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
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
