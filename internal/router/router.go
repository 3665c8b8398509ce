package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/cinereview/internal/handler"
	"github.com/user/cinereview/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	identify := middleware.Identify(h.Sessions, h.Config.AppSecret)
	requireLogin := middleware.RequireLogin()

	// ==================== 认证 ====================
	auth := r.Group("/auth")
	auth.Use(identify)
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
	}

	// ==================== JSON API ====================
	api := r.Group("/api")
	api.Use(identify)
	{
		api.GET("/categories", h.ListCategories)

		api.GET("/movies", h.ListMovies)
		api.GET("/movies/top", h.TopRated)
		api.GET("/movies/:id", h.MovieDetail)
		api.GET("/movies/:id/reviews", h.ListReviews)
		api.GET("/users/:username/reviews", h.UserReviews)
	}

	// 需要登录
	write := api.Group("")
	write.Use(requireLogin)
	{
		write.POST("/movies", h.CreateMovie)
		write.POST("/movies/:id/reviews", h.CreateReview)
		write.PUT("/reviews/:id", h.UpdateReview)
		write.DELETE("/reviews/:id", h.DeleteReview)
		write.POST("/reviews/:id/helpful", h.ToggleHelpful)
	}

	// ==================== 个人资料（需要登录）====================
	profile := r.Group("/profile")
	profile.Use(identify, requireLogin)
	{
		profile.GET("", h.Profile)
		profile.POST("", h.UpdateProfile)
		profile.POST("/password", h.ChangePassword)
		profile.POST("/avatar", h.UpdateAvatar)
	}
}
