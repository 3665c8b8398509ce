package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/cinereview/internal/utils"
)

// RatingReconciler 定期重算所有电影的平均分，修复可能的偏差
type RatingReconciler struct {
	movies     MovieStore
	aggregator *RatingAggregator
	interval   time.Duration
	log        *logrus.Entry
}

func NewRatingReconciler(movies MovieStore, aggregator *RatingAggregator, interval time.Duration) *RatingReconciler {
	return &RatingReconciler{
		movies:     movies,
		aggregator: aggregator,
		interval:   interval,
		log:        utils.Component("RatingReconciler"),
	}
}

// Start 启动时先执行一次，之后按周期执行，ctx 取消后退出
func (r *RatingReconciler) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.log.Info("未配置校准周期，跳过")
		return
	}

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce 返回成功重算的电影数
func (r *RatingReconciler) RunOnce(ctx context.Context) int {
	r.log.Info("开始校准电影平均分...")

	ids, err := r.movies.ListIDs(ctx)
	if err != nil {
		r.log.WithError(err).Error("获取电影列表失败")
		return 0
	}

	fixed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if _, err := r.aggregator.Recompute(ctx, id); err != nil {
			r.log.WithError(err).WithField("movie_id", id).Warn("重算失败")
			continue
		}
		fixed++
	}

	r.log.WithFields(logrus.Fields{"total": len(ids), "recomputed": fixed}).Info("平均分校准完成")
	return fixed
}
