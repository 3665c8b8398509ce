package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/cinereview/internal/middleware"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/utils"
)

type updateProfileRequest struct {
	Email string `json:"email" form:"email" binding:"omitempty,email"`
	Bio   string `json:"bio" form:"bio" binding:"max=500"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" form:"new_password" binding:"required"`
}

// Profile 当前用户资料及其评论
func (h *Handler) Profile(c *gin.Context) {
	username := middleware.GetUsername(c)
	profile, err := h.Profiles.GetProfile(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Success(c, gin.H{
		"profile": profile.Public(),
		"reviews": h.Reviews.ListUserReviews(c.Request.Context(), username),
	})
}

// UpdateProfile 更新邮箱和简介
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, utils.BindErrorMessage(err))
		return
	}

	profile, err := h.Profiles.UpdateProfile(c.Request.Context(), middleware.GetUsername(c), req.Email, req.Bio)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "资料已更新", profile.Public())
}

// ChangePassword 修改密码
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, utils.BindErrorMessage(err))
		return
	}

	err := h.Profiles.ChangePassword(c.Request.Context(), middleware.GetUsername(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "密码已修改", nil)
}

// UpdateAvatar 上传头像（字段 avatar）
func (h *Handler) UpdateAvatar(c *gin.Context) {
	avatar, closeFile, err := h.formFile(c, "avatar")
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeFile()
	if avatar == nil {
		respondError(c, model.ErrInvalidInput)
		return
	}

	profile, err := h.Profiles.UpdateAvatar(c.Request.Context(), middleware.GetUsername(c), avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "头像已更新", profile.Public())
}
