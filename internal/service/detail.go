package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/utils"
	"golang.org/x/sync/errgroup"
)

type movieGetter interface {
	GetMovie(ctx context.Context, id string) (*model.Movie, error)
}

type reviewFetcher interface {
	FetchReviews(ctx context.Context, movieID, currentUser string) ([]model.Review, error)
}

// DetailLoader 并发加载电影与评论，整体受超时约束
type DetailLoader struct {
	movies  movieGetter
	reviews reviewFetcher
	timeout time.Duration
	log     *logrus.Entry
}

func NewDetailLoader(movies movieGetter, reviews reviewFetcher, timeout time.Duration) *DetailLoader {
	return &DetailLoader{
		movies:  movies,
		reviews: reviews,
		timeout: timeout,
		log:     utils.Component("DetailLoader"),
	}
}

type detailResult struct {
	detail *model.MovieDetail
	err    error
}

// Load 两个请求都完成才返回；任一失败则整体失败，超时返回 ErrTimeout，不返回部分结果
func (d *DetailLoader) Load(ctx context.Context, movieID, currentUser string) (*model.MovieDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan detailResult, 1)
	go func() {
		var (
			movie   *model.Movie
			reviews []model.Review
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			m, err := d.movies.GetMovie(gctx, movieID)
			movie = m
			return err
		})
		g.Go(func() error {
			r, err := d.reviews.FetchReviews(gctx, movieID, currentUser)
			reviews = r
			return err
		})
		if err := g.Wait(); err != nil {
			done <- detailResult{err: err}
			return
		}
		done <- detailResult{detail: &model.MovieDetail{Movie: movie, Reviews: reviews}}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, d.timedOut(movieID)
		}
		return res.detail, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, d.timedOut(movieID)
		}
		return nil, ctx.Err()
	}
}

func (d *DetailLoader) timedOut(movieID string) error {
	utils.Metrics.DetailTimeouts.Inc()
	d.log.WithFields(logrus.Fields{"movie_id": movieID, "timeout": d.timeout.String()}).Warn("详情加载超时")
	return model.ErrTimeout
}
