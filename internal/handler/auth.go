package handler

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/cinereview/internal/middleware"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/session"
	"github.com/user/cinereview/internal/utils"
)

type registerRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=64"`
	Password string `json:"password" form:"password" binding:"required,min=4"`
	Email    string `json:"email" form:"email" binding:"omitempty,email"`
	Bio      string `json:"bio" form:"bio"`
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type authResponse struct {
	Username   string `json:"username"`
	RedirectTo string `json:"redirect_to"`
	Token      string `json:"token"`
}

// Register 注册并直接登录
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, utils.BindErrorMessage(err))
		return
	}

	res, err := h.Sessions.SignUp(c.Request.Context(), middleware.GetSessionID(c), &model.Profile{
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
	}, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.completeLogin(c, res)
}

// Login 登录处理
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, utils.BindErrorMessage(err))
		return
	}

	res, err := h.Sessions.Login(c.Request.Context(), middleware.GetSessionID(c), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.completeLogin(c, res)
}

// Logout 清除会话标记、Token 和 Cookie 会话
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Sessions.Logout(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	s := sessions.Default(c)
	s.Clear()
	if err := s.Save(); err != nil {
		utils.Log.WithError(err).Warn("[Logout] 清理 Cookie 会话失败")
	}

	utils.SuccessWithMessage(c, "已退出登录", nil)
}

// Me 当前会话状态
func (h *Handler) Me(c *gin.Context) {
	sc := middleware.GetSession(c)
	utils.Success(c, gin.H{
		"logged_in":     sc.LoggedIn(),
		"username":      sc.Username,
		"forced_logout": sc.ForcedLogout,
	})
}

func (h *Handler) completeLogin(c *gin.Context, res *session.Result) {
	token, err := middleware.GenerateToken(res.Username, res.Context.SessionID, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}
	middleware.SetTokenCookie(c, token, h.Config.JWTExpiry)
	middleware.SetAuthenticated(c, res.Context)

	utils.Success(c, authResponse{
		Username:   res.Username,
		RedirectTo: res.RedirectTo,
		Token:      token,
	})
}
