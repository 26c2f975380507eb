package main

import (
	"context"
	"log"

	"careerpilot-backend/internal/bootstrap"
	"careerpilot-backend/internal/shared/config"
	"careerpilot-backend/internal/shared/server"
	"careerpilot-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(context.Background(), cfg, bootstrap.Options{
		DBOptions: db.DefaultServerOptions(),
	})
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	r := server.NewRouter(app)
	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
