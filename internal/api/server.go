// Package api provides the HTTP API for observing a running economy.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/engine"
	"github.com/talgya/serfworks/internal/persistence"
)

// Server serves the economy state over HTTP.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB
	Addr     string
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	srv *http.Server
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	adminLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/players", s.handlePlayers)
	mux.HandleFunc("/api/v1/buildings", s.handleBuildings)
	mux.HandleFunc("/api/v1/building/", s.handleBuildingDetail)
	mux.HandleFunc("/api/v1/flags", s.handleFlags)
	mux.HandleFunc("/api/v1/inventories", s.handleInventories)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(RateLimitMiddleware(adminLimiter, s.handleSpeed)))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(RateLimitMiddleware(adminLimiter, s.handleSnapshot)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.srv = &http.Server{Addr: s.Addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Close stops the listener.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra origins.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no SERF_API_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	halted := s.Eng.Halted()
	var status map[string]any
	s.Eng.View(func(g *engine.Game) {
		constructing := 0
		for _, b := range g.Buildings.All() {
			if b.Constructing {
				constructing++
			}
		}
		status = map[string]any{
			"game":         g.ID.String(),
			"tick":         g.Tick,
			"game_time":    engine.GameTime(g.Tick),
			"speed":        s.Eng.Speed,
			"halted":       halted != nil,
			"buildings":    g.Buildings.Len(),
			"constructing": constructing,
			"flags":        g.Flags.Len(),
			"serfs":        g.Serfs.Len(),
			"inventories":  g.Inventories.Len(),
			"gold_total":   g.GoldTotal,
		}
	})
	if halted != nil {
		status["fault"] = halted.Error()
	}
	writeJSON(w, status)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	type playerSummary struct {
		Index               int    `json:"index"`
		Name                string `json:"name"`
		CastleKnights       int    `json:"castle_knights"`
		CastleKnightsWanted int    `json:"castle_knights_wanted"`
		Buildings           int    `json:"buildings"`
	}

	var out []playerSummary
	s.Eng.View(func(g *engine.Game) {
		owned := make(map[int]int)
		for _, b := range g.Buildings.All() {
			owned[b.Owner]++
		}
		for _, p := range g.Players {
			out = append(out, playerSummary{
				Index:               p.Index,
				Name:                p.Name,
				CastleKnights:       p.CastleKnights,
				CastleKnightsWanted: p.CastleKnightsWanted,
				Buildings:           owned[p.Index],
			})
		}
	})
	writeJSON(w, out)
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	var rows []persistence.BuildingRow
	s.Eng.View(func(g *engine.Game) {
		rows, _ = persistence.Summarize(g)
	})

	if t := r.URL.Query().Get("type"); t != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if row.Type == t {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	writeJSON(w, rows)
}

// handleBuildingDetail returns the full state of one building:
// GET /api/v1/building/:id
func (s *Server) handleBuildingDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/building/")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		http.Error(w, "invalid building id", http.StatusBadRequest)
		return
	}

	var detail map[string]any
	s.Eng.View(func(g *engine.Game) {
		b, ok := g.Building(engine.BuildingIndex(id))
		if !ok {
			return
		}
		stock := make([]map[string]any, 0, len(b.Stock))
		for _, slot := range b.Stock {
			stock = append(stock, map[string]any{
				"type":      slot.Type.String(),
				"available": slot.Available,
				"requested": slot.Requested,
				"maximum":   slot.Maximum,
				"priority":  slot.Priority,
			})
		}
		detail = map[string]any{
			"building":  b,
			"type_name": b.Type.String(),
			"stock":     stock,
		}
	})
	if detail == nil {
		http.Error(w, "building not found", http.StatusNotFound)
		return
	}
	writeJSON(w, detail)
}

func (s *Server) handleFlags(w http.ResponseWriter, r *http.Request) {
	var rows []persistence.FlagRow
	s.Eng.View(func(g *engine.Game) {
		_, rows = persistence.Summarize(g)
	})
	writeJSON(w, rows)
}

func (s *Server) handleInventories(w http.ResponseWriter, r *http.Request) {
	type inventorySummary struct {
		Index     uint32         `json:"index"`
		Owner     int            `json:"owner"`
		Building  uint32         `json:"building"`
		Resources map[string]int `json:"resources"`
		IdleSerfs int            `json:"idle_serfs"`
	}

	var out []inventorySummary
	s.Eng.View(func(g *engine.Game) {
		for _, inv := range g.Inventories.All() {
			res := make(map[string]int)
			for _, kind := range economy.AllResources() {
				if n := inv.CountOf(kind); n > 0 {
					res[kind.String()] = n
				}
			}
			out = append(out, inventorySummary{
				Index:     inv.Index,
				Owner:     inv.Owner,
				Building:  inv.Building,
				Resources: res,
				IdleSerfs: len(inv.IdleSerfs()),
			})
		}
	})
	writeJSON(w, out)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 64 {
			http.Error(w, "speed must be 0-64", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.CurrentSpeed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	var rec *persistence.SaveRecord
	var err error
	s.Eng.View(func(g *engine.Game) {
		rec, err = s.DB.SaveGame(g)
	})
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rec)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
