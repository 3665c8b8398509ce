package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/cinereview/internal/config"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/storage"
	"github.com/user/cinereview/internal/utils"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	defaultTopRatedLimit = 10
	sharedFetchTimeout   = 10 * time.Second
)

// MovieService 电影查询与新增，维护 id→电影 的有界缓存
type MovieService struct {
	movies     MovieStore
	categories CategoryStore
	images     ImageUploader
	mapper     *Mapper
	memo       *utils.TTLCache[*model.Movie]
	sf         singleflight.Group
	log        *logrus.Entry
}

func NewMovieService(movies MovieStore, categories CategoryStore, images ImageUploader, cfg *config.Config) *MovieService {
	return &MovieService{
		movies:     movies,
		categories: categories,
		images:     images,
		mapper:     NewMapper(cfg.PlaceholderPoster),
		memo:       utils.NewTTLCache[*model.Movie](cfg.MovieCacheSize, cfg.MovieCacheTTL),
		log:        utils.Component("MovieService"),
	}
}

// ListMovies 全部电影，最新在前。出错时返回空列表
func (s *MovieService) ListMovies(ctx context.Context) []model.Movie {
	rows, err := s.movies.ListAll(ctx)
	if err != nil {
		s.log.WithError(err).Error("获取电影列表失败")
		return []model.Movie{}
	}
	return s.remember(s.mapper.Movies(rows))
}

// ListByCategory 按分类名筛选，分类不存在时返回空列表
func (s *MovieService) ListByCategory(ctx context.Context, name string) []model.Movie {
	name = strings.TrimSpace(name)
	category, err := s.categories.FindByName(ctx, name)
	if err != nil {
		s.log.WithError(err).WithField("category", name).Error("查询分类失败")
		return []model.Movie{}
	}
	if category == nil {
		s.log.WithField("category", name).Debug("分类不存在")
		return []model.Movie{}
	}

	rows, err := s.movies.ListByCategoryID(ctx, category.ID)
	if err != nil {
		s.log.WithError(err).WithField("category", name).Error("按分类获取电影失败")
		return []model.Movie{}
	}
	return s.remember(s.mapper.Movies(rows))
}

// TopRated 评分最高的 limit 部，limit<=0 时取 10
func (s *MovieService) TopRated(ctx context.Context, limit int) []model.Movie {
	if limit <= 0 {
		limit = defaultTopRatedLimit
	}
	rows, err := s.movies.TopRated(ctx, limit)
	if err != nil {
		s.log.WithError(err).Error("获取高分电影失败")
		return []model.Movie{}
	}
	return s.remember(s.mapper.Movies(rows))
}

// Search 标题模糊搜索，空关键字等同于全部电影
func (s *MovieService) Search(ctx context.Context, query string) []model.Movie {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListMovies(ctx)
	}
	rows, err := s.movies.SearchByTitle(ctx, query)
	if err != nil {
		s.log.WithError(err).WithField("query", query).Error("搜索电影失败")
		return []model.Movie{}
	}
	return s.remember(s.mapper.Movies(rows))
}

// GetMovie 先查缓存，未命中时读库；同一 id 的并发未命中只读一次。
// 合并后的读取不跟随第一个调用方的取消，避免拖累其他等待者。
func (s *MovieService) GetMovie(ctx context.Context, id string) (*model.Movie, error) {
	if !validID(id) {
		return nil, model.ErrNotFound
	}
	if cached, ok := s.memo.Get(id); ok {
		utils.Metrics.MovieCache.WithLabelValues("hit").Inc()
		movie := *cached
		return &movie, nil
	}
	utils.Metrics.MovieCache.WithLabelValues("miss").Inc()

	v, err, _ := s.sf.Do(id, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		row, err := s.movies.FindByID(fetchCtx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
		}
		if row == nil {
			return nil, model.ErrNotFound
		}
		movie := s.mapper.Movie(row)
		s.memo.Set(movie.ID, movie)
		return movie, nil
	})
	if err != nil {
		return nil, err
	}
	movie := *v.(*model.Movie)
	return &movie, nil
}

// Forget 删除缓存中的电影
func (s *MovieService) Forget(id string) {
	s.memo.Delete(id)
}

func (s *MovieService) ListCategories(ctx context.Context) []model.Category {
	categories, err := s.categories.ListAll(ctx)
	if err != nil {
		s.log.WithError(err).Error("获取分类列表失败")
		return []model.Category{}
	}
	return categories
}

// AddMovie 先插入电影再逐个关联分类（分类按名称取或建）。
// 海报上传失败和分类关联失败只记录日志，不影响电影本身。
func (s *MovieService) AddMovie(ctx context.Context, input model.NewMovie, poster *storage.File) (*model.Movie, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: 标题不能为空", model.ErrInvalidInput)
	}

	posterURL := strings.TrimSpace(input.PosterURL)
	if poster != nil {
		url, err := s.images.UploadPoster(ctx, poster)
		if err != nil {
			s.log.WithError(err).WithField("title", input.Title).Warn("海报上传失败，使用占位图")
		} else {
			posterURL = url
		}
	}

	row := &model.MovieRow{
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		PosterURL:   posterURL,
		ReleaseDate: input.ReleaseDate,
		Duration:    input.Duration,
		CreatedBy:   input.CreatedBy,
	}
	if director := strings.TrimSpace(input.Director); director != "" {
		row.Director = &director
	}

	if err := s.movies.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}

	for _, name := range uniqueNames(input.Categories) {
		category, err := s.EnsureCategory(ctx, name)
		if err != nil {
			s.log.WithError(err).WithField("category", name).Error("获取或创建分类失败")
			continue
		}
		if err := s.movies.LinkCategory(ctx, row.ID, category.ID); err != nil {
			s.log.WithError(err).WithField("category", name).Error("关联分类失败")
			continue
		}
		row.MovieCategories = append(row.MovieCategories, model.MovieCategory{
			MovieID:    row.ID,
			CategoryID: category.ID,
			Category:   category,
		})
	}

	movie := s.mapper.Movie(row)
	s.memo.Set(movie.ID, movie)
	s.log.WithFields(logrus.Fields{"id": movie.ID, "title": movie.Title}).Info("新增电影")
	return movie, nil
}

func (s *MovieService) EnsureCategory(ctx context.Context, name string) (*model.Category, error) {
	category, err := s.categories.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if category != nil {
		return category, nil
	}

	category = &model.Category{Name: name}
	err = s.categories.Create(ctx, category)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发创建同名分类，重新读取
		existing, err := s.categories.FindByName(ctx, name)
		if err == nil && existing == nil {
			return nil, model.ErrNotFound
		}
		return existing, err
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *MovieService) remember(movies []model.Movie) []model.Movie {
	for i := range movies {
		movie := movies[i]
		s.memo.Set(movie.ID, &movie)
	}
	return movies
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range cleanList(names) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
