package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"datastudio/internal/config"
	"datastudio/ui"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Printf("[main] No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] Failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	if cfg.Profiling.Enabled {
		go func() {
			addr := "localhost:" + cfg.Profiling.Port
			log.Printf("[main] pprof listening on %s", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				log.Printf("[main] pprof server stopped: %v", err)
			}
		}()
	}

	server, err := ui.NewServer(cfg)
	if err != nil {
		log.Fatalf("[main] Failed to build server: %v", err)
	}

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	if err := server.Start(addr); err != nil {
		log.Fatalf("[main] Server exited: %v", err)
	}
}
