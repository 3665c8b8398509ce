package model

import (
	"time"

	"github.com/lib/pq"
)

// ReviewRow reviews 表的原始行
type ReviewRow struct {
	ID               string         `db:"id" gorm:"primaryKey;type:uuid"`
	MovieID          string         `db:"movie_id" gorm:"type:uuid;index;not null"`
	UserID           string         `db:"user_id" gorm:"index;not null"`
	UserName         string         `db:"user_name"`
	Rating           int            `db:"rating" gorm:"check:rating >= 1 AND rating <= 5"`
	Content          string         `db:"content"`
	ImageURL         string         `db:"image_url"`
	Pros             pq.StringArray `db:"pros" gorm:"type:text[]"`
	Cons             pq.StringArray `db:"cons" gorm:"type:text[]"`
	ContainsSpoilers bool           `db:"contains_spoilers"`
	Recommended      bool           `db:"recommended"`
	HelpfulCount     int            `db:"helpful_count"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	Movie            *MovieRow      `gorm:"foreignKey:MovieID"`
}

// HelpfulVote 评论“有用”投票，(review_id, user_id) 唯一，随评论一起删除
type HelpfulVote struct {
	ReviewID  string     `json:"review_id" db:"review_id" gorm:"primaryKey;type:uuid"`
	UserID    string     `json:"user_id" db:"user_id" gorm:"primaryKey"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	Review    *ReviewRow `json:"-" gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
}

// Review 扁平化后的评论记录
type Review struct {
	ID               string        `json:"id"`
	MovieID          string        `json:"movie_id"`
	UserID           string        `json:"user_id"`
	UserName         string        `json:"user_name"`
	Rating           int           `json:"rating"`
	Content          string        `json:"content"`
	ImageURL         string        `json:"image_url"`
	Pros             []string      `json:"pros"`
	Cons             []string      `json:"cons"`
	ContainsSpoilers bool          `json:"contains_spoilers"`
	Recommended      bool          `json:"recommended"`
	HelpfulCount     int           `json:"helpful_count"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	Movie            *MovieSummary `json:"movie,omitempty"`

	// 仅针对当前用户，不落库
	HelpfulByCurrentUser bool `json:"helpful_by_current_user"`
}

// NewReview 发表评论的输入
type NewReview struct {
	MovieID          string
	UserID           string
	UserName         string
	Rating           int
	Content          string
	ImageURL         string
	Pros             []string
	Cons             []string
	ContainsSpoilers bool
	Recommended      *bool // nil 视为推荐
}

// ReviewPatch 编辑评论，nil 字段保持不变
type ReviewPatch struct {
	Content          *string
	Rating           *int
	Pros             []string
	Cons             []string
	ContainsSpoilers *bool
	Recommended      *bool
	ImageURL         *string
}

func (ReviewRow) TableName() string   { return "reviews" }
func (HelpfulVote) TableName() string { return "review_helpful_votes" }
