package model

import (
	"time"
)

// Category 分类
type Category struct {
	ID        string    `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" db:"name" gorm:"unique;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MovieCategory 电影与分类的关联
type MovieCategory struct {
	MovieID    string    `json:"movie_id" db:"movie_id" gorm:"primaryKey;type:uuid"`
	CategoryID string    `json:"category_id" db:"category_id" gorm:"primaryKey;type:uuid"`
	Category   *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// MovieRow movies 表的原始行（含关联的分类行）
type MovieRow struct {
	ID              string          `db:"id" gorm:"primaryKey;type:uuid"`
	Title           string          `db:"title"`
	Description     string          `db:"description"`
	PosterURL       string          `db:"poster_url"`
	ReleaseDate     *time.Time      `db:"release_date" gorm:"type:date"`
	Director        *string         `db:"director"`
	Duration        *int            `db:"duration"` // 分钟
	AverageRating   float64         `db:"average_rating" gorm:"index"`
	CreatedAt       time.Time       `db:"created_at"`
	CreatedBy       string          `db:"created_by"`
	MovieCategories []MovieCategory `gorm:"foreignKey:MovieID"`
}

// Movie 扁平化后的电影记录
type Movie struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PosterURL     string    `json:"poster_url"`
	ReleaseDate   time.Time `json:"release_date"`
	Categories    []string  `json:"categories"`
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	Director      *string   `json:"director"`
	Duration      *int      `json:"duration"`
}

// MovieSummary 用户评论列表中附带的电影摘要
type MovieSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"poster_url"`
}

// NewMovie 新增电影的输入
type NewMovie struct {
	Title       string
	Description string
	PosterURL   string
	ReleaseDate *time.Time
	Director    string
	Duration    *int
	Categories  []string
	CreatedBy   string
}

// MovieDetail 详情页数据：电影与其评论
type MovieDetail struct {
	Movie   *Movie   `json:"movie"`
	Reviews []Review `json:"reviews"`
}

func (MovieRow) TableName() string      { return "movies" }
func (Category) TableName() string      { return "categories" }
func (MovieCategory) TableName() string { return "movie_categories" }
