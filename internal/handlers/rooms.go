package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/uno/internal/room"
)

// ListRoomsHandler returns the rooms still waiting for players.
func ListRoomsHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rooms := gs.Rooms.List()
		if rooms == nil {
			rooms = []room.Info{}
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}

// HealthHandler reports liveness and the number of open rooms.
func HealthHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"rooms":  gs.Rooms.Len(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
