// Package session 维护浏览上下文的登录状态。
//
// 每个浏览上下文（sid）有两个标记：持久标记（Redis）和标签页标记（进程内存）。
// 两者都存在且用户名一致时才算已登录；只剩一个或不一致视为过期会话，
// Resolve 会显式执行强制登出。
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/utils"
)

// State 会话状态
type State int

const (
	StateAbsent State = iota
	StateValid
	StateStale
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateStale:
		return "stale"
	default:
		return "absent"
	}
}

// Context 一次请求看到的会话快照
type Context struct {
	SessionID    string `json:"-"`
	Username     string `json:"username,omitempty"`
	State        State  `json:"-"`
	ForcedLogout bool   `json:"forced_logout,omitempty"`
}

func (c Context) LoggedIn() bool {
	return c.State == StateValid
}

// Result 登录/注册结果
type Result struct {
	Context    Context `json:"-"`
	Username   string  `json:"username"`
	RedirectTo string  `json:"redirect_to"`
}

// RedirectAfterLogin 登录或注册成功后跳转的页面
const RedirectAfterLogin = "/profile"

// ProfileStore 用户目录
type ProfileStore interface {
	Get(ctx context.Context, username string) (*model.Profile, error)
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, profile *model.Profile, password string) error
	CheckPassword(profile *model.Profile, password string) bool
}

type Service struct {
	profiles ProfileStore
	durable  MarkerStore
	tab      MarkerStore
	log      *logrus.Entry
}

func NewService(profiles ProfileStore, durable, tab MarkerStore) *Service {
	return &Service{
		profiles: profiles,
		durable:  durable,
		tab:      tab,
		log:      utils.Component("SessionService"),
	}
}

// Login 校验用户名密码，成功后写入两个标记
func (s *Service) Login(ctx context.Context, sid, username, password string) (*Result, error) {
	username = strings.TrimSpace(username)
	if sid == "" || username == "" || password == "" {
		utils.Metrics.Logins.WithLabelValues("invalid").Inc()
		return nil, model.ErrInvalidCredentials
	}

	profile, err := s.profiles.Get(ctx, username)
	if err != nil {
		utils.Metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	if profile == nil || !s.profiles.CheckPassword(profile, password) {
		utils.Metrics.Logins.WithLabelValues("invalid").Inc()
		s.log.WithField("username", username).Info("登录失败: 用户名或密码错误")
		return nil, model.ErrInvalidCredentials
	}

	if err := s.mark(ctx, sid, profile.Username); err != nil {
		utils.Metrics.Logins.WithLabelValues("error").Inc()
		return nil, err
	}

	utils.Metrics.Logins.WithLabelValues("success").Inc()
	s.log.WithFields(logrus.Fields{"username": profile.Username}).Info("用户登录")
	return s.result(sid, profile.Username), nil
}

// SignUp 注册新用户并直接登录。
// 存在性检查与写入之间不加锁，并发注册同名用户时后写入者生效。
func (s *Service) SignUp(ctx context.Context, sid string, profile *model.Profile, password string) (*Result, error) {
	if profile == nil {
		return nil, model.ErrInvalidInput
	}
	profile.Username = strings.TrimSpace(profile.Username)
	if sid == "" || profile.Username == "" || password == "" {
		return nil, model.ErrInvalidInput
	}

	exists, err := s.profiles.Exists(ctx, profile.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	if exists {
		return nil, model.ErrUserAlreadyExists
	}

	normalized := &model.Profile{
		Username:  profile.Username,
		Email:     strings.TrimSpace(profile.Email),
		Bio:       profile.Bio,
		AvatarURL: profile.AvatarURL,
		Gallery:   profile.Gallery,
	}
	if err := s.profiles.Create(ctx, normalized, password); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}

	if err := s.mark(ctx, sid, normalized.Username); err != nil {
		return nil, err
	}

	s.log.WithField("username", normalized.Username).Info("新用户注册")
	return s.result(sid, normalized.Username), nil
}

// Logout 清除两个标记
func (s *Service) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := s.tab.Clear(ctx, sid); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	if err := s.durable.Clear(ctx, sid); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	return nil
}

// Check 读取两个标记并判定状态，不做任何修改
func (s *Service) Check(ctx context.Context, sid string) (Context, error) {
	c := Context{SessionID: sid, State: StateAbsent}
	if sid == "" {
		return c, nil
	}

	durable, err := s.durable.Get(ctx, sid)
	if err != nil {
		return c, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	tab, err := s.tab.Get(ctx, sid)
	if err != nil {
		return c, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}

	switch {
	case durable == "" && tab == "":
		c.State = StateAbsent
	case durable != "" && durable == tab:
		c.State = StateValid
		c.Username = durable
	default:
		c.State = StateStale
	}
	return c, nil
}

// Resolve 在 Check 的基础上处理过期会话：清除两个标记并标记为强制登出
func (s *Service) Resolve(ctx context.Context, sid string) (Context, error) {
	c, err := s.Check(ctx, sid)
	if err != nil {
		return c, err
	}
	if c.State != StateStale {
		return c, nil
	}

	if err := s.Logout(ctx, sid); err != nil {
		return Context{SessionID: sid, State: StateAbsent}, err
	}
	utils.Metrics.ForcedLogouts.Inc()
	s.log.WithField("sid", sid).Warn("会话标记不一致，已强制登出")

	return Context{SessionID: sid, State: StateAbsent, ForcedLogout: true}, nil
}

func (s *Service) IsLogged(ctx context.Context, sid string) bool {
	c, err := s.Resolve(ctx, sid)
	if err != nil {
		s.log.WithError(err).Warn("检查登录状态失败")
		return false
	}
	return c.LoggedIn()
}

// CurrentUser 当前登录用户名，未登录或出错时返回 ""
func (s *Service) CurrentUser(ctx context.Context, sid string) string {
	c, err := s.Resolve(ctx, sid)
	if err != nil {
		s.log.WithError(err).Warn("获取当前用户失败")
		return ""
	}
	return c.Username
}

func (s *Service) mark(ctx context.Context, sid, username string) error {
	if err := s.durable.Set(ctx, sid, username); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	if err := s.tab.Set(ctx, sid, username); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	return nil
}

func (s *Service) result(sid, username string) *Result {
	return &Result{
		Context: Context{
			SessionID: sid,
			Username:  username,
			State:     StateValid,
		},
		Username:   username,
		RedirectTo: RedirectAfterLogin,
	}
}
