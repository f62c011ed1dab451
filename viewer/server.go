// Package viewer serves the score ledger, recorded replays and the live
// spectator feed over HTTP.
package viewer

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brensch/snekarcade/game"
	"github.com/brensch/snekarcade/store"
)

const (
	defaultStatsLimit   = 20
	defaultReplaysLimit = 50
)

type Options struct {
	Logger *slog.Logger
	// ReplayDir is where finalized replay files live. Empty disables the
	// replay endpoints.
	ReplayDir string
	// Hub serves /ws/live when set.
	Hub *Hub
	// ReplayRefresh bounds how long a replay listing may be stale.
	ReplayRefresh time.Duration
}

// Server holds shared state for HTTP handlers.
type Server struct {
	ledger  *store.Ledger
	replays *ReplayDB
	hub     *Hub
	log     *slog.Logger
}

func NewServer(ledger *store.Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{ledger: ledger, hub: opts.Hub, log: logger}
	if opts.ReplayDir != "" {
		s.replays = NewReplayDB(opts.ReplayDir, opts.ReplayRefresh, logger)
	}
	return s
}

// RegisterRoutes sets up all routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/stats/reset", s.handleStatsReset)
	mux.HandleFunc("/api/replays", s.handleReplays)
	mux.HandleFunc("/api/replays/", s.handleReplay)
	if s.hub != nil {
		mux.Handle("/ws/live", s.hub)
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func (s *Server) Close() error {
	if s.hub != nil {
		s.hub.Close()
	}
	if s.replays != nil {
		return s.replays.Close()
	}
	return nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	mode := game.ModePoints
	if v := strings.TrimSpace(r.URL.Query().Get("mode")); v != "" {
		m, err := game.ParseGameMode(strings.ToUpper(v))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mode = m
	}
	offset := parseIntQuery(r, "offset", 0)
	limit := parseIntQuery(r, "limit", defaultStatsLimit)

	page, total := s.ledger.Page(mode, offset, limit)
	writeJSON(w, StatsResponse{
		Mode:    mode.String(),
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		Results: page,
	})
}

func (s *Server) handleStatsReset(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.ledger.Reset(); err != nil {
		s.log.Error("reset ledger", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("ledger reset over http", "remote", r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplays(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.replays == nil {
		http.Error(w, "replays are not recorded", http.StatusNotFound)
		return
	}
	db, err := s.replays.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	limit := parseIntQuery(r, "limit", defaultReplaysLimit)
	offset := parseIntQuery(r, "offset", 0)
	total, err := queryReplaysTotal(r.Context(), db)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	replays, err := queryReplays(r.Context(), db, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, ReplaysResponse{Total: total, Replays: replays})
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.replays == nil {
		http.Error(w, "replays are not recorded", http.StatusNotFound)
		return
	}

	// /api/replays/{round_id}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/replays/"), "/")
	if rest == "" || strings.Contains(rest, "/") {
		http.NotFound(w, r)
		return
	}
	roundID, err := url.PathUnescape(rest)
	if err != nil {
		http.Error(w, "bad round id", http.StatusBadRequest)
		return
	}

	db, err := s.replays.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	replay, err := queryReplay(r.Context(), db, roundID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, replay)
}
