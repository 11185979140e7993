package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"arena/internal/game"
)

// roomSummary is one row of /api/rooms.
type roomSummary struct {
	ID       string `json:"id"`
	Active   bool   `json:"active"`
	Sessions int    `json:"sessions"`
	Entities int    `json:"entities"`
	Shapes   int    `json:"shapes"`
}

type roomDetail struct {
	roomSummary
	Size        float64                 `json:"size"`
	Leaderboard []game.LeaderboardEntry `json:"leaderboard"`
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	writeJSON(w, map[string]any{
		"status":   "ok",
		"tick":     snap.Tick,
		"sessions": snap.Sessions,
		"rooms":    len(snap.Rooms),
	})
}

func (h *routerHandlers) handleListRooms(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	out := make([]roomSummary, 0, len(h.rooms))
	for _, id := range h.rooms {
		row := roomSummary{ID: id}
		if rs, ok := snap.Room(id); ok {
			row = summarize(rs.ID, rs.Sessions, rs.Entities, rs.Shapes)
		}
		out = append(out, row)
	}
	writeJSON(w, out)
}

func summarize(id string, sessions, entities, shapes int) roomSummary {
	return roomSummary{ID: id, Active: true, Sessions: sessions, Entities: entities, Shapes: shapes}
}

func (h *routerHandlers) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "roomID")
	if !h.known[id] {
		writeError(w, "room not found", http.StatusNotFound)
		return
	}

	detail := roomDetail{
		roomSummary: roomSummary{ID: id},
		Leaderboard: []game.LeaderboardEntry{},
	}
	if rs, ok := h.engine.Snapshot().Room(id); ok {
		detail.roomSummary = summarize(rs.ID, rs.Sessions, rs.Entities, rs.Shapes)
		detail.Size = rs.Size
		if rs.Leaderboard != nil {
			detail.Leaderboard = rs.Leaderboard
		}
	}
	writeJSON(w, detail)
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "roomID")
	if !h.known[id] {
		writeError(w, "room not found", http.StatusNotFound)
		return
	}

	rows := []game.LeaderboardEntry{}
	if rs, ok := h.engine.Snapshot().Room(id); ok && rs.Leaderboard != nil {
		rows = rs.Leaderboard
	}
	writeJSON(w, rows)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
