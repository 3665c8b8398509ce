package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/cinereview/internal/config"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/repository"
	"github.com/user/cinereview/internal/session"
	"github.com/user/cinereview/internal/service"
	"github.com/user/cinereview/internal/storage"
	"github.com/user/cinereview/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Config     *config.Config
	Sessions   *session.Service
	Movies     *service.MovieService
	Reviews    *service.ReviewService
	Details    *service.DetailLoader
	Profiles   *service.ProfileService
	Aggregator *service.RatingAggregator
}

// NewHandler 创建处理器并组装各服务
func NewHandler(repos *repository.Repositories, sessions *session.Service, images service.ImageUploader, cfg *config.Config) *Handler {
	movies := service.NewMovieService(repos.Movie, repos.Category, images, cfg)

	// 平均分写回后让电影缓存失效
	aggregator := service.NewRatingAggregator(repos.Movie, movies.Forget)
	reviews := service.NewReviewService(repos.Review, repos.HelpfulVote, images, aggregator, cfg)

	return &Handler{
		Config:     cfg,
		Sessions:   sessions,
		Movies:     movies,
		Reviews:    reviews,
		Details:    service.NewDetailLoader(movies, reviews, cfg.DetailTimeout),
		Profiles:   service.NewProfileService(repos.Profile, images),
		Aggregator: aggregator,
	}
}

// statusOf 业务错误到 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrUserAlreadyExists), errors.Is(err, model.ErrDuplicateReview):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrIncompleteReview), errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrStorageUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError 写出错误响应，5xx 不向客户端暴露内部细节
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	switch status {
	case http.StatusNotFound:
		utils.NotFound(c, msg)
		return
	case http.StatusInternalServerError:
		utils.Log.WithError(err).WithField("path", c.Request.URL.Path).Error("请求处理失败")
		msg = model.ErrRemoteStore.Error()
	case http.StatusBadGateway:
		utils.Log.WithError(err).WithField("path", c.Request.URL.Path).Error("文件上传失败")
		msg = model.ErrStorageUploadFailed.Error()
	}
	utils.Error(c, status, msg)
}

// formFile 读取可选的上传文件，没有文件时返回 nil
func (h *Handler) formFile(c *gin.Context, field string) (*storage.File, func(), error) {
	noop := func() {}

	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, fmt.Errorf("%w: 读取上传文件失败", model.ErrInvalidInput)
	}
	if h.Config.MaxUploadSize > 0 && fh.Size > h.Config.MaxUploadSize {
		return nil, noop, fmt.Errorf("%w: 文件不能超过 %d 字节", model.ErrInvalidInput, h.Config.MaxUploadSize)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, fmt.Errorf("%w: 打开上传文件失败", model.ErrInvalidInput)
	}
	return &storage.File{Name: fh.Filename, Size: fh.Size, Body: f}, func() { f.Close() }, nil
}
