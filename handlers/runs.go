package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"runedeep/server/persistence"
	"runedeep/server/services"
)

// RunsHandler serves /runs/{id} with a run record and /runs/{id}/levels/{n}
// with the map stored for that level
func RunsHandler(players *services.PlayerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/runs/"), "/"), "/")
		switch {
		case len(parts) == 1 && parts[0] != "":
			run, err := players.Run(parts[0])
			writeResult(w, run, err)
		case len(parts) == 3 && parts[0] != "" && parts[1] == "levels":
			level, err := strconv.Atoi(parts[2])
			if err != nil || level < 1 {
				http.Error(w, "bad level", http.StatusBadRequest)
				return
			}
			gameMap, err := players.Level(parts[0], level)
			writeResult(w, gameMap, err)
		default:
			http.NotFound(w, r)
		}
	}
}

func writeResult(w http.ResponseWriter, v interface{}, err error) {
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Run lookup error: %v", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
