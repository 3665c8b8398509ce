package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/cinereview/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// FindByID 根据 ID 查找评论，不存在时返回 nil
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*model.ReviewRow, error) {
	var row model.ReviewRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByMovieAndUser 查找某用户对某电影的评论
func (r *ReviewRepository) FindByMovieAndUser(ctx context.Context, movieID, userID string) (*model.ReviewRow, error) {
	var row model.ReviewRow
	err := r.db.WithContext(ctx).
		Select("id").
		Where("movie_id = ? AND user_id = ?", movieID, userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create 创建评论
func (r *ReviewRepository) Create(ctx context.Context, row *model.ReviewRow) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	now := time.Now()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error
}

// Update 按字段更新评论
func (r *ReviewRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.ReviewRow{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除评论
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ReviewRow{}).Error
}

// AdjustHelpfulCount 原子增减有用计数
func (r *ReviewRepository) AdjustHelpfulCount(ctx context.Context, id string, delta int) error {
	return r.db.WithContext(ctx).Model(&model.ReviewRow{}).
		Where("id = ?", id).
		UpdateColumn("helpful_count", gorm.Expr("GREATEST(helpful_count + ?, 0)", delta)).Error
}

// ListByMovie 获取电影的评论，最新在前
func (r *ReviewRepository) ListByMovie(ctx context.Context, movieID string) ([]model.ReviewRow, error) {
	var rows []model.ReviewRow
	err := r.db.WithContext(ctx).
		Where("movie_id = ?", movieID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListByUser 获取用户的评论（附带电影信息），最新在前
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]model.ReviewRow, error) {
	var rows []model.ReviewRow
	err := r.db.WithContext(ctx).
		Preload("Movie", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "poster_url")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
