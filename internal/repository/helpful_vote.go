package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/cinereview/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrVoteExists 投票已存在（违反唯一约束）
var ErrVoteExists = errors.New("vote already exists")

type HelpfulVoteRepository struct {
	db *gorm.DB
}

func NewHelpfulVoteRepository(db *gorm.DB) *HelpfulVoteRepository {
	return &HelpfulVoteRepository{db: db}
}

// Insert 插入投票，重复时返回 ErrVoteExists，评论不存在时返回 model.ErrNotFound
func (r *HelpfulVoteRepository) Insert(ctx context.Context, reviewID, userID string) error {
	vote := &model.HelpfulVote{
		ReviewID:  reviewID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(vote).Error
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrVoteExists
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return model.ErrNotFound
	}
	return err
}

// Delete 删除投票
func (r *HelpfulVoteRepository) Delete(ctx context.Context, reviewID, userID string) error {
	return r.db.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		Delete(&model.HelpfulVote{}).Error
}

// VotedReviewIDs 在给定评论中筛出用户已投票的
func (r *HelpfulVoteRepository) VotedReviewIDs(ctx context.Context, userID string, reviewIDs []string) ([]string, error) {
	if len(reviewIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.HelpfulVote{}).
		Where("user_id = ? AND review_id IN ?", userID, reviewIDs).
		Pluck("review_id", &ids).Error
	return ids, err
}
