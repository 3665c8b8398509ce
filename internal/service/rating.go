package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/utils"
)

// MeanRating 算术平均，没有评分时为 0
func MeanRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// RatingAggregator 重新计算并写回电影平均分
type RatingAggregator struct {
	movies   MovieStore
	onChange func(movieID string)
	log      *logrus.Entry
}

// NewRatingAggregator onChange 在写回成功后调用，用于让缓存失效
func NewRatingAggregator(movies MovieStore, onChange func(movieID string)) *RatingAggregator {
	if onChange == nil {
		onChange = func(string) {}
	}
	return &RatingAggregator{
		movies:   movies,
		onChange: onChange,
		log:      utils.Component("RatingAggregator"),
	}
}

// Recompute 在事务内读取全部评分、计算平均分并写回
func (a *RatingAggregator) Recompute(ctx context.Context, movieID string) (float64, error) {
	avg, err := a.movies.RecomputeAverage(ctx, movieID, MeanRating)
	if errors.Is(err, model.ErrNotFound) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("%w: 重算平均分失败: %v", model.ErrRemoteStore, err)
	}

	a.onChange(movieID)
	a.log.WithFields(logrus.Fields{"movie_id": movieID, "average": avg}).Debug("平均分已更新")
	return avg, nil
}
