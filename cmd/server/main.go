package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"runedeep/server/config"
	"runedeep/server/handlers"
	"runedeep/server/persistence"
	"runedeep/server/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin during development
		// In production, restrict this to your client's domain
		return true
	},
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var db persistence.Storage
	if cfg.DBType == "postgres" {
		db, err = persistence.NewPostgresStore(cfg.DatabaseURL)
		log.Println("Using PostgreSQL persistence")
	} else {
		db, err = persistence.NewJSONStore(cfg.DBFile)
		log.Println("Using JSON persistence")
	}
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}
	defer db.Close()

	clientManager := handlers.NewClientManager()
	catalog := config.NewThemeCatalog()
	if cfg.ThemesFile != "" {
		if err := catalog.Reload(cfg.ThemesFile); err != nil {
			log.Fatalf("Failed to load themes: %v", err)
		}
		watcher, err := config.WatchThemeCatalog(cfg.ThemesFile, catalog)
		if err != nil {
			log.Printf("Theme hot reload disabled: %v", err)
		} else {
			defer watcher.Close()
			go clientManager.AnnounceReloads(watcher.Reloads, catalog)
		}
		log.Printf("Loaded %d theme presets from %s", catalog.Len(), cfg.ThemesFile)
	}

	deps := &handlers.Dependencies{
		Players:   services.NewPlayerService(db),
		Clients:   clientManager,
		Generator: services.NewMapGenerator(services.MapWidth, services.MapHeight, services.TileSize),
		Presets:   catalog,
		Interval:  cfg.TickInterval(),
		Seed:      func() int64 { return cfg.SeedFor(time.Now()) },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		handlers.HandleClientConnection(conn, deps)
	})
	mux.HandleFunc("/runs/", handlers.RunsHandler(deps.Players))
	mux.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 100 {
			limit = 10
		}
		runs, err := deps.Players.Leaderboard(limit)
		if err != nil {
			log.Printf("Leaderboard error: %v", err)
			http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runs)
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: mux}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		log.Println("Shutting down...")
		clientManager.ExecuteOnAllClients(func(c *handlers.ClientHandler) { c.Close() })
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s (%d steps/s)", cfg.Port, cfg.TickRate)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}
