package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ggorockee/dollcatch/internal/config"
	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/loader"
	"github.com/ggorockee/dollcatch/internal/logger"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadLoader()

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	if err := logger.Init(logger.Options{Level: level}); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.GetLogger("main")

	// CLI 인자 파싱
	dataDir := flag.String("dir", cfg.DataDir, "매장 JSON 파일 디렉토리")
	migrate := flag.Bool("migrate", false, "적재 전 스키마 마이그레이션 실행")
	seedUsers := flag.Bool("seed-users", false, "개발용 테스트 유저 생성")
	flag.Parse()

	// 컨텍스트 설정 (시그널 핸들링)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *migrate {
		if err := runMigrate(cfg); err != nil {
			log.Errorf("마이그레이션 실패: %v", err)
			os.Exit(1)
		}
		log.Info("마이그레이션 완료")
	}

	store, err := loader.Connect(ctx, cfg)
	if err != nil {
		log.Errorf("데이터베이스 연결 실패: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	log.Infof("========== 데이터 적재 시작: %s ==========", *dataDir)
	startTime := time.Now()

	if *seedUsers {
		n, err := store.SeedUsers(ctx, loader.DefaultUsers())
		if err != nil {
			log.Errorf("유저 생성 실패: %v", err)
			os.Exit(1)
		}
		log.Infof("테스트 유저 %d명 추가", n)
	}

	res, err := loader.New(store, cfg.BatchSize).Run(ctx, *dataDir)
	if err != nil {
		log.Errorf("데이터 적재 실패: %v", err)
		os.Exit(1)
	}

	log.Infof("========== 데이터 적재 종료: files=%d parsed=%d skipped=%d inserted=%d (%s) ==========",
		res.Files, res.Parsed, res.Skipped, res.Inserted, time.Since(startTime).Round(time.Millisecond))
}

// runMigrate applies the gorm schema so the loader can run on an empty database
func runMigrate(cfg *config.LoaderConfig) error {
	db, err := database.Open(postgres.Open(cfg.DatabaseURL), gormlogger.Warn)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.Migrate(db)
}
