package repository

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/user/cinereview/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	}
}

// Migrate 自动建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Category{},
		&model.MovieRow{},
		&model.MovieCategory{},
		&model.ReviewRow{},
		&model.HelpfulVote{},
	)
}

// Repositories 仓库集合
type Repositories struct {
	DB          *gorm.DB
	Category    *CategoryRepository
	Movie       *MovieRepository
	Review      *ReviewRepository
	HelpfulVote *HelpfulVoteRepository
	Profile     *ProfileRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB, rdb *redis.Client) *Repositories {
	return &Repositories{
		DB:          db,
		Category:    NewCategoryRepository(db),
		Movie:       NewMovieRepository(db),
		Review:      NewReviewRepository(db),
		HelpfulVote: NewHelpfulVoteRepository(db),
		Profile:     NewProfileRepository(rdb),
	}
}
