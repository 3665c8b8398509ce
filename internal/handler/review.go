package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/cinereview/internal/middleware"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/utils"
)

type createReviewRequest struct {
	Rating           int      `json:"rating" form:"rating"`
	Content          string   `json:"content" form:"content"`
	ImageURL         string   `json:"image_url" form:"image_url"`
	Pros             []string `json:"pros" form:"pros"`
	Cons             []string `json:"cons" form:"cons"`
	ContainsSpoilers bool     `json:"contains_spoilers" form:"contains_spoilers"`
	Recommended      *bool    `json:"recommended" form:"recommended"`
}

type updateReviewRequest struct {
	Rating           *int     `json:"rating" form:"rating"`
	Content          *string  `json:"content" form:"content"`
	ImageURL         *string  `json:"image_url" form:"image_url"`
	Pros             []string `json:"pros" form:"pros"`
	Cons             []string `json:"cons" form:"cons"`
	ContainsSpoilers *bool    `json:"contains_spoilers" form:"contains_spoilers"`
	Recommended      *bool    `json:"recommended" form:"recommended"`
}

// ListReviews 电影的评论，登录用户附带自己的投票状态
func (h *Handler) ListReviews(c *gin.Context) {
	utils.Success(c, h.Reviews.ListReviews(c.Request.Context(), c.Param("id"), middleware.GetUsername(c)))
}

// CreateReview 发表评论，可附带图片（字段 image）
func (h *Handler) CreateReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, utils.BindErrorMessage(err))
		return
	}

	image, closeFile, err := h.formFile(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeFile()

	username := middleware.GetUsername(c)
	review, err := h.Reviews.AddReview(c.Request.Context(), model.NewReview{
		MovieID:          c.Param("id"),
		UserID:           username,
		UserName:         username,
		Rating:           req.Rating,
		Content:          req.Content,
		ImageURL:         req.ImageURL,
		Pros:             req.Pros,
		Cons:             req.Cons,
		ContainsSpoilers: req.ContainsSpoilers,
		Recommended:      req.Recommended,
	}, image)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, review)
}

// UpdateReview 编辑自己的评论
func (h *Handler) UpdateReview(c *gin.Context) {
	var req updateReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, utils.BindErrorMessage(err))
		return
	}

	image, closeFile, err := h.formFile(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeFile()

	review, err := h.Reviews.UpdateReview(c.Request.Context(), c.Param("id"), middleware.GetUsername(c), model.ReviewPatch{
		Content:          req.Content,
		Rating:           req.Rating,
		Pros:             req.Pros,
		Cons:             req.Cons,
		ContainsSpoilers: req.ContainsSpoilers,
		Recommended:      req.Recommended,
		ImageURL:         req.ImageURL,
	}, image)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, review)
}

// DeleteReview 删除自己的评论
func (h *Handler) DeleteReview(c *gin.Context) {
	if err := h.Reviews.DeleteReview(c.Request.Context(), c.Param("id"), middleware.GetUsername(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "评论已删除", nil)
}

// ToggleHelpful 切换“有用”投票
func (h *Handler) ToggleHelpful(c *gin.Context) {
	liked, err := h.Reviews.ToggleHelpful(c.Request.Context(), c.Param("id"), middleware.GetUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"liked": liked})
}

// UserReviews 某用户写过的评论
func (h *Handler) UserReviews(c *gin.Context) {
	utils.Success(c, h.Reviews.ListUserReviews(c.Request.Context(), c.Param("username")))
}
