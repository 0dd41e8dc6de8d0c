// Package http exposes a small admin and health surface over HTTP. Roster
// state is owned by the Telegram flow; the writes offered here are closing a
// roster and restoring a snapshot from a backup.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	apperrors "github.com/louisbranch/pickup.football/internal/platform/errors"
	"github.com/louisbranch/pickup.football/internal/platform/timeouts"
	"github.com/louisbranch/pickup.football/internal/services/roster/app"
	"github.com/louisbranch/pickup.football/internal/services/roster/domain/roster"
)

// Server serves the admin API.
type Server struct {
	addr       string
	httpServer *http.Server
}

// HealthProbe reports transport connectivity for the health endpoint. A nil
// probe means the endpoint reports process liveness only.
type HealthProbe interface {
	// Err returns the latest probe error, nil while healthy.
	Err() error
	// LastCheck returns when a probe last succeeded, zero if never.
	LastCheck() time.Time
}

// NewServer builds the admin API server. allowedOrigins feeds CORS; empty
// means same-origin only.
func NewServer(addr string, svc *app.Service, allowedOrigins []string, health HealthProbe) (*Server, error) {
	if addr == "" {
		return nil, errors.New("http address is required")
	}
	if svc == nil {
		return nil, errors.New("roster service is required")
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(timeouts.HealthProbe + 5*time.Second))
	if len(allowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	handlers := &rosterHandlers{svc: svc, health: health}
	router.Get("/healthz", handlers.healthz)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/rosters", handlers.list)
		r.Post("/rosters", handlers.restore)
		r.Get("/rosters/{chatID}", handlers.get)
		r.Post("/rosters/{chatID}/end", handlers.end)
	})

	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests are
// drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("http server is nil")
	}

	serveErr := make(chan error, 1)
	log.Printf("admin api listening on %s", s.addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type rosterHandlers struct {
	svc    *app.Service
	health HealthProbe
}

type participantView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest,omitempty"`
	SponsorID   string `json:"sponsor_id,omitempty"`
}

type rosterView struct {
	ChatID      int64             `json:"chat_id"`
	MessageID   int               `json:"message_id"`
	Capacity    int               `json:"capacity"`
	Active      bool              `json:"active"`
	Description string            `json:"description,omitempty"`
	Occupants   []participantView `json:"occupants"`
	Overflow    []participantView `json:"overflow,omitempty"`
}

func viewOf(r *roster.Roster) rosterView {
	view := rosterView{
		ChatID:      r.ChatID,
		MessageID:   r.MessageID,
		Capacity:    r.Capacity,
		Active:      r.Active,
		Description: r.Description,
		Occupants:   []participantView{},
	}
	for _, p := range r.Occupants {
		view.Occupants = append(view.Occupants, participantView(p))
	}
	for _, p := range r.Overflow {
		view.Overflow = append(view.Overflow, participantView(p))
	}
	return view
}

// toRoster rebuilds domain state from a view. The guest registry is derived
// from guest projections, which carry the sponsor reference and name.
func (v rosterView) toRoster() *roster.Roster {
	out := &roster.Roster{
		ChatID:        v.ChatID,
		MessageID:     v.MessageID,
		LastMessageID: v.MessageID,
		Capacity:      v.Capacity,
		Active:        v.Active,
		Description:   v.Description,
		Guests:        map[string][]roster.Guest{},
	}
	for _, p := range v.Occupants {
		out.Occupants = append(out.Occupants, roster.Participant(p))
	}
	for _, p := range v.Overflow {
		out.Overflow = append(out.Overflow, roster.Participant(p))
	}
	for _, p := range append(append([]participantView(nil), v.Occupants...), v.Overflow...) {
		if !p.IsGuest {
			continue
		}
		out.Guests[p.SponsorID] = append(out.Guests[p.SponsorID], roster.Guest{
			ID:        p.ID,
			Name:      p.DisplayName,
			SponsorID: p.SponsorID,
		})
	}
	return out
}

func (h *rosterHandlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if err := h.health.Err(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"telegram": err.Error(),
		})
		return
	}
	payload := map[string]string{"status": "ok"}
	if last := h.health.LastCheck(); !last.IsZero() {
		payload["telegram_checked_at"] = last.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *rosterHandlers) list(w http.ResponseWriter, r *http.Request) {
	rosters, err := h.svc.Rosters(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]rosterView, 0, len(rosters))
	for _, item := range rosters {
		views = append(views, viewOf(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rosters": views})
}

func (h *rosterHandlers) restore(w http.ResponseWriter, r *http.Request) {
	var payload rosterView
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid snapshot payload"})
		return
	}
	if payload.ChatID == 0 || payload.Capacity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "chat_id and positive capacity are required"})
		return
	}
	restored, err := h.svc.RestoreSnapshot(r.Context(), payload.toRoster())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(restored))
}

func (h *rosterHandlers) get(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chat id"})
		return
	}
	snapshot, err := h.svc.Roster(r.Context(), chatID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(snapshot))
}

func (h *rosterHandlers) end(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chat id"})
		return
	}
	if err := h.svc.Deactivate(r.Context(), chatID); err != nil {
		writeError(w, err)
		return
	}
	snapshot, err := h.svc.Roster(r.Context(), chatID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(snapshot))
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeRosterClosed, apperrors.CodeRosterAlreadyExists:
		status = http.StatusConflict
	case apperrors.CodeRosterInvalidCapacity, apperrors.CodeRosterInvalidState:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
