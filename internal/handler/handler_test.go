package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cinereview/internal/config"
	"github.com/user/cinereview/internal/middleware"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/repository"
	"github.com/user/cinereview/internal/session"
	"github.com/user/cinereview/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrInvalidCredentials, http.StatusUnauthorized},
		{model.ErrUserAlreadyExists, http.StatusConflict},
		{model.ErrDuplicateReview, http.StatusConflict},
		{model.ErrNotFound, http.StatusNotFound},
		{model.ErrIncompleteReview, http.StatusBadRequest},
		{fmt.Errorf("%w: 标题不能为空", model.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: minio", model.ErrStorageUploadFailed), http.StatusBadGateway},
		{model.ErrTimeout, http.StatusGatewayTimeout},
		{fmt.Errorf("%w: dial tcp", model.ErrRemoteStore), http.StatusInternalServerError},
		{errors.New("其他"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/movies", nil)

	respondError(c, fmt.Errorf("%w: pq: password authentication failed", model.ErrRemoteStore))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, model.ErrRemoteStore.Error(), body.Message)
	assert.NotContains(t, w.Body.String(), "password authentication")
}

type authEnv struct {
	rdb     *redis.Client
	cfg     *config.Config
	handler *Handler
	engine  *gin.Engine
}

// newAuthEnv 只挂载认证相关路由，标签页标记存放在本实例内存中
func newAuthEnv(t *testing.T, rdb *redis.Client) *authEnv {
	t.Helper()
	cfg := &config.Config{AppSecret: "test-secret", JWTExpiry: time.Hour}

	profiles := repository.NewProfileRepository(rdb).WithCost(bcrypt.MinCost)
	svc := session.NewService(profiles, session.NewRedisMarkers(rdb), session.NewMemoryMarkers(time.Minute))
	h := &Handler{Config: cfg, Sessions: svc}

	r := gin.New()
	r.Use(sessions.Sessions("cinereview_session", cookie.NewStore([]byte(cfg.AppSecret))))
	identify := middleware.Identify(svc, cfg.AppSecret)

	auth := r.Group("/auth", identify)
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/me", h.Me)

	r.GET("/private", identify, middleware.RequireLogin(), func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetUsername(c))
	})

	return &authEnv{rdb: rdb, cfg: cfg, handler: h, engine: r}
}

func newRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func (e *authEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (e *authEnv) register(t *testing.T, username, password string) string {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/auth/register", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res authResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.Token)
	assert.Equal(t, username, res.Username)
	assert.Equal(t, session.RedirectAfterLogin, res.RedirectTo)
	return res.Token
}

type meResponse struct {
	LoggedIn     bool   `json:"logged_in"`
	Username     string `json:"username"`
	ForcedLogout bool   `json:"forced_logout"`
}

func (e *authEnv) me(t *testing.T, token string) meResponse {
	t.Helper()
	w, env := e.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me meResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	return me
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	e := newAuthEnv(t, newRedis(t))

	token := e.register(t, "alice", "secret1")

	me := e.me(t, token)
	assert.True(t, me.LoggedIn)
	assert.Equal(t, "alice", me.Username)

	w, _ := e.do(t, http.MethodGet, "/private", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	w, _ = e.do(t, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	me = e.me(t, token)
	assert.False(t, me.LoggedIn)
	assert.False(t, me.ForcedLogout)

	w, env := e.do(t, http.MethodPost, "/auth/login", token, gin.H{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res authResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, e.me(t, res.Token).LoggedIn)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	e := newAuthEnv(t, newRedis(t))
	e.register(t, "bob", "secret1")

	w, env := e.do(t, http.MethodPost, "/auth/register", "", gin.H{"username": "bob", "password": "other1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, model.ErrUserAlreadyExists.Error(), env.Message)
}

func TestRegisterValidation(t *testing.T) {
	e := newAuthEnv(t, newRedis(t))

	w, env := e.do(t, http.MethodPost, "/auth/register", "", gin.H{"username": "carol"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, env.Message)
}

func TestLoginWrongPassword(t *testing.T) {
	e := newAuthEnv(t, newRedis(t))
	e.register(t, "dave", "secret1")

	w, env := e.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "dave", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "用户名或密码错误", env.Message)

	w, _ = e.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "nobody", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireLoginAnonymous(t *testing.T) {
	e := newAuthEnv(t, newRedis(t))

	w, env := e.do(t, http.MethodGet, "/private", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "未登录", env.Message)

	// 浏览器请求同样返回 JSON，不跳转
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "未登录", body.Message)
}

// 进程重启后标签页标记丢失，持久标记仍在：判定为过期并强制登出
func TestStaleSessionForcesLogout(t *testing.T) {
	rdb := newRedis(t)
	first := newAuthEnv(t, rdb)
	token := first.register(t, "erin", "secret1")

	restarted := newAuthEnv(t, rdb)

	w, env := restarted.do(t, http.MethodGet, "/private", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "会话已失效，请重新登录", env.Message)

	// 标记已被清除，再次访问只是普通的未登录
	me := restarted.me(t, token)
	assert.False(t, me.LoggedIn)
	assert.False(t, me.ForcedLogout)

	keys, err := rdb.Keys(t.Context(), "session:durable:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestTamperedTokenFallsBackToCookieSession(t *testing.T) {
	e := newAuthEnv(t, newRedis(t))
	token := e.register(t, "frank", "secret1")

	forged, err := middleware.GenerateToken("frank", "other-sid", "wrong-secret", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, token, forged)

	me := e.me(t, forged)
	assert.False(t, me.LoggedIn)
}

// 格式不对的 id 直接 404，不会发到数据库
func TestMalformedIDIsNotFound(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	cfg := &config.Config{
		AppSecret:      "test-secret",
		MovieCacheSize: 8,
		MovieCacheTTL:  time.Minute,
		DetailTimeout:  time.Second,
	}
	h := NewHandler(repository.NewRepositories(db, newRedis(t)), nil, storage.NewImageStore(nil), cfg)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetAuthenticated(c, session.Context{Username: "alice", State: session.StateValid})
		c.Next()
	})
	r.GET("/api/movies/:id", h.MovieDetail)
	r.GET("/api/movies/:id/reviews", h.ListReviews)
	r.DELETE("/api/reviews/:id", h.DeleteReview)
	r.POST("/api/reviews/:id/helpful", h.ToggleHelpful)

	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/movies/abc"},
		{http.MethodDelete, "/api/reviews/abc"},
		{http.MethodPost, "/api/reviews/abc/helpful"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)

		var body envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), tc.path)
		assert.Equal(t, model.ErrNotFound.Error(), body.Message, tc.path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/movies/abc/reviews", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.JSONEq(t, "[]", string(body.Data))

	assert.NoError(t, mock.ExpectationsWereMet())
}
