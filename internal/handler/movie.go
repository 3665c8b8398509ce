package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/cinereview/internal/middleware"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/utils"
)

const dateLayout = "2006-01-02"

type createMovieRequest struct {
	Title       string   `json:"title" form:"title" binding:"required"`
	Description string   `json:"description" form:"description"`
	PosterURL   string   `json:"poster_url" form:"poster_url"`
	ReleaseDate string   `json:"release_date" form:"release_date"`
	Director    string   `json:"director" form:"director"`
	Duration    *int     `json:"duration" form:"duration" binding:"omitempty,min=1"`
	Categories  []string `json:"categories" form:"categories"`
}

// ListMovies 电影列表，支持 ?category= 和 ?q=
func (h *Handler) ListMovies(c *gin.Context) {
	ctx := c.Request.Context()
	switch {
	case c.Query("category") != "":
		utils.Success(c, h.Movies.ListByCategory(ctx, c.Query("category")))
	case c.Query("q") != "":
		utils.Success(c, h.Movies.Search(ctx, c.Query("q")))
	default:
		utils.Success(c, h.Movies.ListMovies(ctx))
	}
}

// TopRated 评分排行
func (h *Handler) TopRated(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	utils.Success(c, h.Movies.TopRated(c.Request.Context(), limit))
}

// MovieDetail 电影详情（含评论），超时返回 504
func (h *Handler) MovieDetail(c *gin.Context) {
	detail, err := h.Details.Load(c.Request.Context(), c.Param("id"), middleware.GetUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, detail)
}

func (h *Handler) ListCategories(c *gin.Context) {
	utils.Success(c, h.Movies.ListCategories(c.Request.Context()))
}

// CreateMovie 新增电影，可附带海报文件（字段 poster）
func (h *Handler) CreateMovie(c *gin.Context) {
	var req createMovieRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, utils.BindErrorMessage(err))
		return
	}

	input := model.NewMovie{
		Title:       req.Title,
		Description: req.Description,
		PosterURL:   req.PosterURL,
		Director:    req.Director,
		Duration:    req.Duration,
		Categories:  splitCategories(req.Categories),
		CreatedBy:   middleware.GetUsername(c),
	}
	if req.ReleaseDate != "" {
		d, err := time.Parse(dateLayout, req.ReleaseDate)
		if err != nil {
			utils.BadRequest(c, "上映日期格式应为 YYYY-MM-DD")
			return
		}
		input.ReleaseDate = &d
	}

	poster, closeFile, err := h.formFile(c, "poster")
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeFile()

	movie, err := h.Movies.AddMovie(c.Request.Context(), input, poster)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, movie)
}

// splitCategories 兼容 "a,b" 与重复字段两种提交方式
func splitCategories(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}
