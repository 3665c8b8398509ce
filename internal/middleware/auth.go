package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/user/cinereview/internal/session"
	"github.com/user/cinereview/internal/utils"
)

const (
	TokenCookie = "token"

	sessionIDKey  = "sid"
	contextKey    = "session"
	usernameKey   = "username"
	cookieSidKey  = "sid"
	bearerPrefix  = "Bearer "
	defaultMaxAge = 72 * time.Hour
)

// Claims JWT 声明，携带用户名和浏览上下文 ID
type Claims struct {
	Username  string `json:"username"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Identify 确定本次请求的浏览上下文并解析会话状态。
// 带有效 Token 时使用 Token 中的 sid，否则使用 Cookie 会话中的 sid（没有就新建）。
func Identify(svc *session.Service, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := ""
		if claims, err := extractClaims(c, jwtSecret); err == nil && claims.SessionID != "" {
			sid = claims.SessionID
			refreshToken(c, claims, jwtSecret)
		} else {
			sid = cookieSessionID(c)
		}

		sc, err := svc.Resolve(c.Request.Context(), sid)
		if err != nil {
			utils.Log.WithError(err).Warn("[Identify] 解析会话失败，按未登录处理")
		}
		if sc.ForcedLogout {
			clearTokenCookie(c)
		}

		c.Set(sessionIDKey, sid)
		c.Set(contextKey, sc)
		if sc.LoggedIn() {
			c.Set(usernameKey, sc.Username)
		}
		c.Next()
	}
}

// RequireLogin 必须登录，需在 Identify 之后使用。接口只返回 JSON，未登录统一 401
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUsername(c) != "" {
			c.Next()
			return
		}

		msg := "未登录"
		if GetSession(c).ForcedLogout {
			msg = "会话已失效，请重新登录"
		}
		utils.Unauthorized(c, msg)
		c.Abort()
	}
}

// GetSessionID 当前浏览上下文 ID
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// GetUsername 当前登录用户名，未登录返回 ""
func GetUsername(c *gin.Context) string {
	return c.GetString(usernameKey)
}

func GetSession(c *gin.Context) session.Context {
	if v, ok := c.Get(contextKey); ok {
		if sc, ok := v.(session.Context); ok {
			return sc
		}
	}
	return session.Context{SessionID: GetSessionID(c), State: session.StateAbsent}
}

// SetAuthenticated 登录成功后把结果写回上下文
func SetAuthenticated(c *gin.Context, sc session.Context) {
	c.Set(contextKey, sc)
	c.Set(usernameKey, sc.Username)
}

// SetTokenCookie 写入 Token Cookie
func SetTokenCookie(c *gin.Context, token string, expiry time.Duration) {
	c.SetCookie(TokenCookie, token, int(expiry.Seconds()), "/", "", false, true)
}

func clearTokenCookie(c *gin.Context) {
	c.SetCookie(TokenCookie, "", -1, "/", "", false, true)
}

// cookieSessionID 从 Cookie 会话读取 sid，不存在时生成
func cookieSessionID(c *gin.Context) string {
	s := sessions.Default(c)
	if sid, ok := s.Get(cookieSidKey).(string); ok && sid != "" {
		return sid
	}
	sid := uuid.NewString()
	s.Set(cookieSidKey, sid)
	if err := s.Save(); err != nil {
		utils.Log.WithError(err).Warn("[Identify] 保存会话 Cookie 失败")
	}
	return sid
}

// extractClaims 从 Cookie 或 Header 中提取 JWT Claims
func extractClaims(c *gin.Context, jwtSecret string) (*Claims, error) {
	var tokenString string

	// Authorization Header 优先，方便 API 客户端
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, bearerPrefix) {
		tokenString = strings.TrimPrefix(authHeader, bearerPrefix)
	} else if cookie, err := c.Cookie(TokenCookie); err == nil {
		tokenString = cookie
	}

	if tokenString == "" {
		return nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// GenerateToken 生成 JWT Token
func GenerateToken(username, sid, jwtSecret string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = defaultMaxAge
	}
	now := time.Now()
	claims := &Claims{
		Username:  username,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// refreshToken 滑动续期：有效期消耗超过一半时重新签发 Cookie
func refreshToken(c *gin.Context, claims *Claims, jwtSecret string) {
	if !shouldRefresh(claims) {
		return
	}
	expiry := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	newToken, err := GenerateToken(claims.Username, claims.SessionID, jwtSecret, expiry)
	if err == nil {
		SetTokenCookie(c, newToken, expiry)
	}
}

// shouldRefresh 判断是否需要刷新 Token
// 逻辑：如果已经消耗了总有效期的 50% 以上，则建议刷新
func shouldRefresh(claims *Claims) bool {
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return false
	}

	totalDuration := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	elapsedDuration := time.Since(claims.IssuedAt.Time)

	return elapsedDuration > totalDuration/2
}
