package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/storage"
	"github.com/user/cinereview/internal/utils"
)

const mappingFile = "mapping.json"

type catalog interface {
	EnsureCategory(ctx context.Context, name string) (*model.Category, error)
	AddMovie(ctx context.Context, input model.NewMovie, poster *storage.File) (*model.Movie, error)
}

type movieLookup interface {
	FindByTitle(ctx context.Context, title string) (*model.MovieRow, error)
	UpdatePoster(ctx context.Context, id, posterURL string) error
}

type posterUploader interface {
	UploadPoster(ctx context.Context, f *storage.File) (string, error)
}

type seeder struct {
	catalog catalog
	movies  movieLookup
	images  posterUploader
	log     *logrus.Entry
}

func newSeeder(c catalog, movies movieLookup, images posterUploader) *seeder {
	return &seeder{catalog: c, movies: movies, images: images, log: utils.Component("Seed")}
}

// SeedCatalog 写入演示分类和电影，已存在的同名电影跳过。返回新增电影数
func (s *seeder) SeedCatalog(ctx context.Context) (int, error) {
	for _, name := range demoCategories {
		if _, err := s.catalog.EnsureCategory(ctx, name); err != nil {
			s.log.WithError(err).WithField("category", name).Error("写入分类失败")
		}
	}

	added := 0
	for _, m := range demoMovies {
		existing, err := s.movies.FindByTitle(ctx, m.Title)
		if err != nil {
			return added, fmt.Errorf("查询电影 %q 失败: %w", m.Title, err)
		}
		if existing != nil {
			s.log.WithField("title", m.Title).Info("电影已存在，跳过")
			continue
		}

		input := model.NewMovie{
			Title:       m.Title,
			Description: m.Description,
			Director:    m.Director,
			Categories:  m.Categories,
		}
		released := time.Date(m.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		input.ReleaseDate = &released
		if minutes, ok := parseRuntime(m.Runtime); ok {
			input.Duration = &minutes
		}

		movie, err := s.catalog.AddMovie(ctx, input, nil)
		if err != nil {
			s.log.WithError(err).WithField("title", m.Title).Error("写入电影失败")
			continue
		}
		added++
		s.log.WithFields(logrus.Fields{"id": movie.ID, "title": movie.Title}).Info("已写入电影")
	}
	return added, nil
}

// UploadPosters 上传目录中的海报并回写 poster_url。
// 目录下有 mapping.json（电影 id → 文件名）时按 id 匹配，否则按内置的标题表匹配。
// 缺失的文件和单条失败只记录日志。返回成功更新数
func (s *seeder) UploadPosters(ctx context.Context, dir string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, fmt.Errorf("海报目录不可用: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s 不是目录", dir)
	}

	byID, err := readMapping(filepath.Join(dir, mappingFile))
	if err != nil {
		s.log.WithError(err).Warn("mapping.json 解析失败，改用标题匹配")
		byID = nil
	}

	updated := 0
	if byID != nil {
		s.log.Info("按 mapping.json 中的 id 匹配海报")
		for id, filename := range byID {
			if s.uploadOne(ctx, id, dir, filename) {
				updated++
			}
		}
		return updated, nil
	}

	for title, filename := range posterFiles {
		movie, err := s.movies.FindByTitle(ctx, title)
		if err != nil {
			s.log.WithError(err).WithField("title", title).Error("查询电影失败")
			continue
		}
		if movie == nil {
			s.log.WithField("title", title).Warn("电影不存在，跳过")
			continue
		}
		if s.uploadOne(ctx, movie.ID, dir, filename) {
			updated++
		}
	}
	return updated, nil
}

func (s *seeder) uploadOne(ctx context.Context, movieID, dir, filename string) bool {
	entry := s.log.WithFields(logrus.Fields{"movie_id": movieID, "file": filename})

	f, err := os.Open(filepath.Join(dir, filename))
	if err != nil {
		entry.Warn("海报文件不存在，跳过")
		return false
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		entry.WithError(err).Error("读取海报文件失败")
		return false
	}

	url, err := s.images.UploadPoster(ctx, &storage.File{Name: filename, Size: stat.Size(), Body: f})
	if err != nil {
		entry.WithError(err).Error("上传海报失败")
		return false
	}
	if err := s.movies.UpdatePoster(ctx, movieID, url); err != nil {
		entry.WithError(err).Error("更新 poster_url 失败")
		return false
	}
	entry.WithField("url", url).Info("海报已更新")
	return true
}

// readMapping 文件不存在时返回 nil, nil
func readMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

var runtimePattern = regexp.MustCompile(`^\s*(?:(\d+)\s*h)?\s*(?:(\d+)\s*min)?\s*$`)

// parseRuntime 把 "2h 49min"、"2h"、"95min" 换算成分钟
func parseRuntime(s string) (int, bool) {
	m := runtimePattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes, true
}
