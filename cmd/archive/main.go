package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/caarlos0/env/v9"
	"github.com/google/uuid"
	"github.com/secthall/contribution-backend/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The points log is append-only and permanent; this command writes a
// CSV snapshot of it to a GCS bucket as an off-database backup.
type Config struct {
	StorageBucket  string `env:"STORAGE_BUCKET,required"`
	DBHost         string `env:"DB_HOST,required"`
	DBUser         string `env:"DB_USER,required"`
	DBPassword     string `env:"DB_PASSWORD,required"`
	DBName         string `env:"DB_NAME,required"`
	DBPort         string `env:"DB_PORT" envDefault:"3306"`
	TimeoutSeconds int    `env:"TIMEOUT_SECONDS" envDefault:"300"`
	GroupID        int64  `env:"ARCHIVE_GROUP_ID"` // 0 exports every group
	BatchSize      int    `env:"ARCHIVE_BATCH_SIZE" envDefault:"500"`
}

func main() {
	ctx := context.Background()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse env: %v", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := connectDB(cfg)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql db: %v", err)
	}
	defer sqlDB.Close()

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		log.Fatalf("failed to init storage: %v", err)
	}
	defer storageClient.Close()

	object := fmt.Sprintf("exports/points_log-%s-%s.csv",
		time.Now().UTC().Format("20060102"), uuid.NewString()[:8])
	count, err := export(ctx, cfg, db, storageClient, object)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}
	log.Printf("archived %d transactions to gs://%s/%s", count, cfg.StorageBucket, object)
}

func connectDB(cfg Config) (*gorm.DB, error) {
	var dsn string
	if strings.HasPrefix(cfg.DBHost, "/cloudsql/") {
		dsn = fmt.Sprintf("%s:%s@unix(%s)/%s?parseTime=true&charset=utf8mb4&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBName)
	} else {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func export(ctx context.Context, cfg Config, db *gorm.DB, client *storage.Client, object string) (int, error) {
	w := client.Bucket(cfg.StorageBucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv"
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "user_id", "group_id", "points", "reason", "timestamp"}); err != nil {
		return 0, err
	}

	count := 0
	q := db.WithContext(ctx).Model(&model.PointTransaction{}).Order("id ASC")
	if cfg.GroupID != 0 {
		q = q.Where("group_id = ?", cfg.GroupID)
	}
	var batch []model.PointTransaction
	res := q.FindInBatches(&batch, cfg.BatchSize, func(_ *gorm.DB, _ int) error {
		for _, tx := range batch {
			record := []string{
				strconv.FormatUint(tx.ID, 10),
				strconv.FormatInt(tx.UserID, 10),
				strconv.FormatInt(tx.GroupID, 10),
				strconv.FormatInt(tx.Points, 10),
				tx.Reason,
				tx.Timestamp.UTC().Format(time.RFC3339),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		count += len(batch)
		return nil
	})
	if res.Error != nil {
		return 0, res.Error
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("close object writer: %w", err)
	}
	return count, nil
}
