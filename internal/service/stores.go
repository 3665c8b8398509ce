package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/storage"
)

// validID 主键都是 uuid 列，格式不对的 id 直接按不存在处理，不送到数据库
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// 以下接口由 repository 包中的实现满足，测试中可替换为内存实现

type MovieStore interface {
	ListAll(ctx context.Context) ([]model.MovieRow, error)
	ListByCategoryID(ctx context.Context, categoryID string) ([]model.MovieRow, error)
	TopRated(ctx context.Context, limit int) ([]model.MovieRow, error)
	SearchByTitle(ctx context.Context, query string) ([]model.MovieRow, error)
	FindByID(ctx context.Context, id string) (*model.MovieRow, error)
	Create(ctx context.Context, row *model.MovieRow) error
	LinkCategory(ctx context.Context, movieID, categoryID string) error
	ListIDs(ctx context.Context) ([]string, error)
	RecomputeAverage(ctx context.Context, movieID string, mean func([]int) float64) (float64, error)
}

type CategoryStore interface {
	FindByName(ctx context.Context, name string) (*model.Category, error)
	Create(ctx context.Context, category *model.Category) error
	ListAll(ctx context.Context) ([]model.Category, error)
}

type ReviewStore interface {
	FindByID(ctx context.Context, id string) (*model.ReviewRow, error)
	FindByMovieAndUser(ctx context.Context, movieID, userID string) (*model.ReviewRow, error)
	Create(ctx context.Context, row *model.ReviewRow) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	AdjustHelpfulCount(ctx context.Context, id string, delta int) error
	ListByMovie(ctx context.Context, movieID string) ([]model.ReviewRow, error)
	ListByUser(ctx context.Context, userID string) ([]model.ReviewRow, error)
}

type VoteStore interface {
	Insert(ctx context.Context, reviewID, userID string) error
	Delete(ctx context.Context, reviewID, userID string) error
	VotedReviewIDs(ctx context.Context, userID string, reviewIDs []string) ([]string, error)
}

type ProfileDirectory interface {
	Get(ctx context.Context, username string) (*model.Profile, error)
	Save(ctx context.Context, profile *model.Profile) error
	CheckPassword(profile *model.Profile, password string) bool
	UpdatePassword(ctx context.Context, profile *model.Profile, newPassword string) error
}

// ImageUploader 上传图片并返回公开地址
type ImageUploader interface {
	UploadPoster(ctx context.Context, f *storage.File) (string, error)
	UploadReviewImage(ctx context.Context, f *storage.File) (string, error)
	UploadAvatar(ctx context.Context, f *storage.File) (string, error)
}
