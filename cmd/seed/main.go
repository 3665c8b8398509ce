package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"
	"github.com/user/cinereview/internal/config"
	"github.com/user/cinereview/internal/repository"
	"github.com/user/cinereview/internal/service"
	"github.com/user/cinereview/internal/storage"
	"github.com/user/cinereview/internal/utils"
)

func main() {
	seedCatalog := flag.Bool("categories-and-movies", false, "写入演示分类和电影")
	postersDir := flag.String("posters", "", "海报目录，按标题或 mapping.json 匹配后上传")
	timeout := flag.Duration("timeout", 5*time.Minute, "整体超时")
	flag.Parse()

	log := utils.Log
	if !*seedCatalog && *postersDir == "" {
		flag.Usage()
		log.Fatal("至少指定 -categories-and-movies 或 -posters 之一")
	}

	if err := godotenv.Load(); err != nil {
		log.Info("未找到 .env 文件，使用系统环境变量")
	}
	cfg := config.Load()
	utils.InitLogger(cfg.Env)

	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	bucket, err := storage.NewMinIOBucket(cfg.MinIO)
	if err != nil {
		log.Fatalf("对象存储初始化失败: %v", err)
	}
	images := storage.NewImageStore(bucket)

	movieRepo := repository.NewMovieRepository(db)
	movies := service.NewMovieService(movieRepo, repository.NewCategoryRepository(db), images, cfg)
	s := newSeeder(movies, movieRepo, images)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *seedCatalog {
		added, err := s.SeedCatalog(ctx)
		if err != nil {
			log.Fatalf("写入演示数据失败: %v", err)
		}
		log.Infof("演示数据写入完成，新增电影 %d 部", added)
	}

	if *postersDir != "" {
		if err := bucket.EnsureBucket(ctx); err != nil {
			log.Fatalf("检查存储桶失败: %v", err)
		}
		updated, err := s.UploadPosters(ctx, *postersDir)
		if err != nil {
			log.Fatalf("上传海报失败: %v", err)
		}
		log.Infof("海报上传完成，更新 %d 部电影", updated)
	}
}
