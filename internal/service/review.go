package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/user/cinereview/internal/config"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/repository"
	"github.com/user/cinereview/internal/storage"
	"github.com/user/cinereview/internal/utils"
	"gorm.io/gorm"
)

const (
	minRating = 1
	maxRating = 5
)

// ReviewService 评论的增删改查与“有用”投票
type ReviewService struct {
	reviews    ReviewStore
	votes      VoteStore
	images     ImageUploader
	aggregator *RatingAggregator
	mapper     *Mapper
	log        *logrus.Entry
}

func NewReviewService(reviews ReviewStore, votes VoteStore, images ImageUploader, aggregator *RatingAggregator, cfg *config.Config) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		votes:      votes,
		images:     images,
		aggregator: aggregator,
		mapper:     NewMapper(cfg.PlaceholderPoster),
		log:        utils.Component("ReviewService"),
	}
}

// AddReview 发表评论。同一用户对同一电影只能有一条评论（先查后写，不加锁）
func (s *ReviewService) AddReview(ctx context.Context, input model.NewReview, image *storage.File) (*model.Review, error) {
	input.MovieID = strings.TrimSpace(input.MovieID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.Content = strings.TrimSpace(input.Content)
	if input.MovieID == "" || input.UserID == "" || input.Content == "" || !validRating(input.Rating) {
		return nil, model.ErrIncompleteReview
	}
	if !validID(input.MovieID) {
		return nil, model.ErrNotFound
	}

	existing, err := s.reviews.FindByMovieAndUser(ctx, input.MovieID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	if existing != nil {
		return nil, model.ErrDuplicateReview
	}

	imageURL := strings.TrimSpace(input.ImageURL)
	if image != nil {
		url, err := s.images.UploadReviewImage(ctx, image)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	recommended := true
	if input.Recommended != nil {
		recommended = *input.Recommended
	}

	row := &model.ReviewRow{
		MovieID:          input.MovieID,
		UserID:           input.UserID,
		UserName:         orDefault(input.UserName, input.UserID),
		Rating:           input.Rating,
		Content:          input.Content,
		ImageURL:         imageURL,
		Pros:             pq.StringArray(cleanList(input.Pros)),
		Cons:             pq.StringArray(cleanList(input.Cons)),
		ContainsSpoilers: input.ContainsSpoilers,
		Recommended:      recommended,
	}
	if err := s.reviews.Create(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}

	utils.Metrics.ReviewsWritten.WithLabelValues("create").Inc()
	s.log.WithFields(logrus.Fields{"movie_id": row.MovieID, "user": row.UserID, "rating": row.Rating}).Info("新增评论")
	s.recompute(ctx, row.MovieID)

	review := s.mapper.Review(row)
	return &review, nil
}

// UpdateReview 只有作者可以编辑，nil 字段保持不变；评分变化时重算平均分
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, userID string, patch model.ReviewPatch, image *storage.File) (*model.Review, error) {
	row, err := s.ownedReview(ctx, reviewID, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.Content != nil {
		content := strings.TrimSpace(*patch.Content)
		if content == "" {
			return nil, model.ErrIncompleteReview
		}
		fields["content"] = content
	}
	if patch.Rating != nil {
		if !validRating(*patch.Rating) {
			return nil, model.ErrIncompleteReview
		}
		fields["rating"] = *patch.Rating
	}
	if patch.Pros != nil {
		fields["pros"] = pq.StringArray(cleanList(patch.Pros))
	}
	if patch.Cons != nil {
		fields["cons"] = pq.StringArray(cleanList(patch.Cons))
	}
	if patch.ContainsSpoilers != nil {
		fields["contains_spoilers"] = *patch.ContainsSpoilers
	}
	if patch.Recommended != nil {
		fields["recommended"] = *patch.Recommended
	}
	if patch.ImageURL != nil {
		fields["image_url"] = strings.TrimSpace(*patch.ImageURL)
	}
	if image != nil {
		url, err := s.images.UploadReviewImage(ctx, image)
		if err != nil {
			return nil, err
		}
		fields["image_url"] = url
	}
	fields["updated_at"] = time.Now()

	if err := s.reviews.Update(ctx, row.ID, fields); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	utils.Metrics.ReviewsWritten.WithLabelValues("update").Inc()

	if patch.Rating != nil {
		s.recompute(ctx, row.MovieID)
	}

	updated, err := s.reviews.FindByID(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	if updated == nil {
		return nil, model.ErrNotFound
	}
	review := s.mapper.Review(updated)
	return &review, nil
}

// DeleteReview 只有作者可以删除
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, userID string) error {
	row, err := s.ownedReview(ctx, reviewID, userID)
	if err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, row.ID); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	utils.Metrics.ReviewsWritten.WithLabelValues("delete").Inc()
	s.log.WithFields(logrus.Fields{"review_id": row.ID, "movie_id": row.MovieID}).Info("删除评论")

	s.recompute(ctx, row.MovieID)
	return nil
}

// ListReviews 电影的评论，最新在前。出错时返回空列表
func (s *ReviewService) ListReviews(ctx context.Context, movieID, currentUser string) []model.Review {
	if !validID(movieID) {
		return []model.Review{}
	}
	reviews, err := s.FetchReviews(ctx, movieID, currentUser)
	if err != nil {
		s.log.WithError(err).WithField("movie_id", movieID).Error("获取评论失败")
		return []model.Review{}
	}
	return reviews
}

// FetchReviews 与 ListReviews 相同，但把错误交给调用方
func (s *ReviewService) FetchReviews(ctx context.Context, movieID, currentUser string) ([]model.Review, error) {
	if !validID(movieID) {
		return nil, model.ErrNotFound
	}
	rows, err := s.reviews.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	reviews := s.mapper.Reviews(rows)
	if currentUser == "" || len(reviews) == 0 {
		return reviews, nil
	}

	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ID)
	}
	voted, err := s.votes.VotedReviewIDs(ctx, currentUser, ids)
	if err != nil {
		// 投票标记失败不影响评论本身
		s.log.WithError(err).Warn("获取投票状态失败")
		return reviews, nil
	}
	set := make(map[string]struct{}, len(voted))
	for _, id := range voted {
		set[id] = struct{}{}
	}
	for i := range reviews {
		_, reviews[i].HelpfulByCurrentUser = set[reviews[i].ID]
	}
	return reviews, nil
}

// ListUserReviews 用户写过的评论（附电影摘要），最新在前
func (s *ReviewService) ListUserReviews(ctx context.Context, username string) []model.Review {
	rows, err := s.reviews.ListByUser(ctx, username)
	if err != nil {
		s.log.WithError(err).WithField("user", username).Error("获取用户评论失败")
		return []model.Review{}
	}
	return s.mapper.Reviews(rows)
}

// ToggleHelpful 先尝试插入投票，已存在则删除。返回操作后的状态
func (s *ReviewService) ToggleHelpful(ctx context.Context, reviewID, userID string) (bool, error) {
	if reviewID == "" || userID == "" {
		return false, model.ErrInvalidInput
	}
	if !validID(reviewID) {
		return false, model.ErrNotFound
	}

	err := s.votes.Insert(ctx, reviewID, userID)
	switch {
	case err == nil:
		s.adjustHelpful(ctx, reviewID, 1)
		utils.Metrics.HelpfulToggles.WithLabelValues("on").Inc()
		return true, nil
	case errors.Is(err, repository.ErrVoteExists):
		if err := s.votes.Delete(ctx, reviewID, userID); err != nil {
			return false, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
		}
		s.adjustHelpful(ctx, reviewID, -1)
		utils.Metrics.HelpfulToggles.WithLabelValues("off").Inc()
		return false, nil
	case errors.Is(err, model.ErrNotFound):
		return false, err
	default:
		return false, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
}

func (s *ReviewService) ownedReview(ctx context.Context, reviewID, userID string) (*model.ReviewRow, error) {
	if !validID(reviewID) {
		return nil, model.ErrNotFound
	}
	row, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	if row == nil || userID == "" || row.UserID != userID {
		return nil, model.ErrNotFound
	}
	return row, nil
}

// recompute 失败只记日志，评论写入已经成功
func (s *ReviewService) recompute(ctx context.Context, movieID string) {
	if _, err := s.aggregator.Recompute(ctx, movieID); err != nil {
		s.log.WithError(err).WithField("movie_id", movieID).Error("重算平均分失败")
	}
}

func (s *ReviewService) adjustHelpful(ctx context.Context, reviewID string, delta int) {
	if err := s.reviews.AdjustHelpfulCount(ctx, reviewID, delta); err != nil {
		s.log.WithError(err).WithField("review_id", reviewID).Warn("更新有用计数失败")
	}
}

func validRating(r int) bool {
	return r >= minRating && r <= maxRating
}
