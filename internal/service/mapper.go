package service

import (
	"strings"
	"time"

	"github.com/user/cinereview/internal/model"
)

const (
	defaultTitle       = "Untitled"
	defaultDescription = "No description"
	defaultCreatedBy   = "unknown"
)

// Mapper 把数据库行整理成扁平记录并补齐缺省值
type Mapper struct {
	placeholderPoster string
	now               func() time.Time
}

func NewMapper(placeholderPoster string) *Mapper {
	return &Mapper{placeholderPoster: placeholderPoster, now: time.Now}
}

// Movie 分类名按关联行原顺序展开，丢弃缺失的分类，不去重
func (m *Mapper) Movie(row *model.MovieRow) *model.Movie {
	now := m.now()

	movie := &model.Movie{
		ID:            row.ID,
		Title:         orDefault(row.Title, defaultTitle),
		Description:   orDefault(row.Description, defaultDescription),
		PosterURL:     orDefault(row.PosterURL, m.placeholderPoster),
		ReleaseDate:   now,
		Categories:    make([]string, 0, len(row.MovieCategories)),
		AverageRating: row.AverageRating,
		CreatedAt:     row.CreatedAt,
		CreatedBy:     orDefault(row.CreatedBy, defaultCreatedBy),
		Director:      row.Director,
		Duration:      row.Duration,
	}
	if row.ReleaseDate != nil {
		movie.ReleaseDate = *row.ReleaseDate
	}
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = now
	}

	for _, link := range row.MovieCategories {
		if link.Category == nil || link.Category.Name == "" {
			continue
		}
		movie.Categories = append(movie.Categories, link.Category.Name)
	}
	return movie
}

func (m *Mapper) Movies(rows []model.MovieRow) []model.Movie {
	movies := make([]model.Movie, 0, len(rows))
	for i := range rows {
		movies = append(movies, *m.Movie(&rows[i]))
	}
	return movies
}

func (m *Mapper) Review(row *model.ReviewRow) model.Review {
	review := model.Review{
		ID:               row.ID,
		MovieID:          row.MovieID,
		UserID:           row.UserID,
		UserName:         orDefault(row.UserName, row.UserID),
		Rating:           row.Rating,
		Content:          row.Content,
		ImageURL:         row.ImageURL,
		Pros:             nonNil(row.Pros),
		Cons:             nonNil(row.Cons),
		ContainsSpoilers: row.ContainsSpoilers,
		Recommended:      row.Recommended,
		HelpfulCount:     row.HelpfulCount,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if review.HelpfulCount < 0 {
		review.HelpfulCount = 0
	}
	if row.Movie != nil {
		review.Movie = &model.MovieSummary{
			ID:        row.Movie.ID,
			Title:     orDefault(row.Movie.Title, defaultTitle),
			PosterURL: orDefault(row.Movie.PosterURL, m.placeholderPoster),
		}
	}
	return review
}

func (m *Mapper) Reviews(rows []model.ReviewRow) []model.Review {
	reviews := make([]model.Review, 0, len(rows))
	for i := range rows {
		reviews = append(reviews, m.Review(&rows[i]))
	}
	return reviews
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// cleanList 去掉空白项，保持顺序
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
