package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/secthall/contribution-backend/internal/config"
	"github.com/secthall/contribution-backend/internal/db"
	"github.com/secthall/contribution-backend/internal/model"
	"github.com/secthall/contribution-backend/internal/repository"
	"gorm.io/gorm"
)

type seedAward struct {
	userID int64
	points int64
	reason string
	age    time.Duration
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := gdb.AutoMigrate(&model.PointTransaction{}, &model.ProtegeGrant{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	groupID := int64(1)
	if raw := os.Getenv("SEED_GROUP_ID"); raw != "" {
		groupID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parse SEED_GROUP_ID: %w", err)
		}
	}

	canSeed, err := shouldSeed(ctx, gdb, groupID)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("points_log already has rows for group %d; skipping", groupID)
		return nil
	}

	points := repository.NewPointsRepository(gdb)
	now := time.Now().UTC()
	awards := buildSeedAwards()
	for _, a := range awards {
		tx := &model.PointTransaction{
			UserID:    a.userID,
			GroupID:   groupID,
			Points:    a.points,
			Reason:    a.reason,
			Timestamp: now.Add(-a.age),
		}
		if err := points.Append(ctx, tx); err != nil {
			return fmt.Errorf("append seed transaction: %w", err)
		}
	}

	log.Printf("seeded %d transactions for group %d", len(awards), groupID)
	return nil
}

func shouldSeed(ctx context.Context, gdb *gorm.DB, groupID int64) (bool, error) {
	var count int64
	if err := gdb.WithContext(ctx).
		Model(&model.PointTransaction{}).
		Where("group_id = ?", groupID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count points_log: %w", err)
	}
	return count == 0, nil
}

func buildSeedAwards() []seedAward {
	return []seedAward{
		{userID: 1001, points: 120, reason: "Helped onboard new members", age: 30 * 24 * time.Hour},
		{userID: 1001, points: 80, reason: "Completed a mission from the board", age: 12 * 24 * time.Hour},
		{userID: 1002, points: 600, reason: "Organized the monthly tournament", age: 20 * 24 * time.Hour},
		{userID: 1002, points: 150, reason: "Mentoring sessions", age: 5 * 24 * time.Hour},
		{userID: 1003, points: 40, reason: "Event attendance", age: 3 * 24 * time.Hour},
		{userID: 1004, points: 2200, reason: "Long-running infrastructure work", age: 60 * 24 * time.Hour},
		{userID: 1004, points: -100, reason: "Correction: duplicate award", age: 59 * 24 * time.Hour},
		{userID: 1005, points: 15, reason: "Suggestion adopted", age: 1 * 24 * time.Hour},
	}
}
