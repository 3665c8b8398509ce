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

const movieCategoriesPreload = "MovieCategories.Category"

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// ListAll 获取全部电影（含分类）
func (r *MovieRepository) ListAll(ctx context.Context) ([]model.MovieRow, error) {
	var rows []model.MovieRow
	err := r.db.WithContext(ctx).
		Preload(movieCategoriesPreload).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListByCategoryID 获取某分类下的电影
func (r *MovieRepository) ListByCategoryID(ctx context.Context, categoryID string) ([]model.MovieRow, error) {
	var rows []model.MovieRow
	err := r.db.WithContext(ctx).
		Preload(movieCategoriesPreload).
		Joins("JOIN movie_categories mc ON mc.movie_id = movies.id").
		Where("mc.category_id = ?", categoryID).
		Find(&rows).Error
	return rows, err
}

// TopRated 按平均分倒序取前 limit 部
func (r *MovieRepository) TopRated(ctx context.Context, limit int) ([]model.MovieRow, error) {
	var rows []model.MovieRow
	err := r.db.WithContext(ctx).
		Preload(movieCategoriesPreload).
		Order("average_rating DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// SearchByTitle 标题模糊搜索（不区分大小写）
func (r *MovieRepository) SearchByTitle(ctx context.Context, query string) ([]model.MovieRow, error) {
	var rows []model.MovieRow
	err := r.db.WithContext(ctx).
		Preload(movieCategoriesPreload).
		Where("title ILIKE ?", "%"+query+"%").
		Find(&rows).Error
	return rows, err
}

// FindByID 根据 ID 查找电影，不存在时返回 nil
func (r *MovieRepository) FindByID(ctx context.Context, id string) (*model.MovieRow, error) {
	var row model.MovieRow
	err := r.db.WithContext(ctx).
		Preload(movieCategoriesPreload).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByTitle 根据标题精确查找
func (r *MovieRepository) FindByTitle(ctx context.Context, title string) (*model.MovieRow, error) {
	var row model.MovieRow
	err := r.db.WithContext(ctx).Where("title = ?", title).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create 插入电影（不含分类关联）
func (r *MovieRepository) Create(ctx context.Context, row *model.MovieRow) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error
}

// LinkCategory 建立电影与分类的关联
func (r *MovieRepository) LinkCategory(ctx context.Context, movieID, categoryID string) error {
	link := &model.MovieCategory{MovieID: movieID, CategoryID: categoryID}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(link).Error
}

// UpdatePoster 更新海报地址
func (r *MovieRepository) UpdatePoster(ctx context.Context, id, posterURL string) error {
	return r.db.WithContext(ctx).Model(&model.MovieRow{}).Where("id = ?", id).Update("poster_url", posterURL).Error
}

// ListIDs 获取全部电影 ID
func (r *MovieRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.MovieRow{}).Pluck("id", &ids).Error
	return ids, err
}

// RecomputeAverage 在同一事务内锁定电影行、读取全部评分并写回平均分。
// 同一部电影的并发重算会在行锁上排队。
func (r *MovieRepository) RecomputeAverage(ctx context.Context, movieID string, mean func([]int) float64) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked model.MovieRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", movieID).
			Take(&locked).Error; err != nil {
			return err
		}

		var ratings []int
		if err := tx.Model(&model.ReviewRow{}).
			Where("movie_id = ?", movieID).
			Pluck("rating", &ratings).Error; err != nil {
			return err
		}

		avg = mean(ratings)
		return tx.Model(&model.MovieRow{}).
			Where("id = ?", movieID).
			Update("average_rating", avg).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, model.ErrNotFound
	}
	return avg, err
}
