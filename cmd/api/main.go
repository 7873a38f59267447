package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/secthall/contribution-backend/internal/config"
	"github.com/secthall/contribution-backend/internal/db"
	"github.com/secthall/contribution-backend/internal/model"
	"github.com/secthall/contribution-backend/internal/server"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	// The grant guard depends on the composite unique index existing.
	if err := conn.AutoMigrate(&model.PointTransaction{}, &model.ProtegeGrant{}); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	srv, err := server.New(ctx, cfg, conn)
	if err != nil {
		log.Fatalf("server init error: %v", err)
	}

	addr := ":" + cfg.Port
	log.Printf("starting server on %s", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
