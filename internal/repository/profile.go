package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/cinereview/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const profileKeyPrefix = "profile:" // profile:{username}

// ProfileRepository 用户资料目录，每个用户名一个 JSON 值
type ProfileRepository struct {
	client *redis.Client
	cost   int
}

func NewProfileRepository(client *redis.Client) *ProfileRepository {
	return &ProfileRepository{client: client, cost: bcrypt.DefaultCost}
}

// WithCost 设置 bcrypt 代价（测试用较低代价）
func (r *ProfileRepository) WithCost(cost int) *ProfileRepository {
	r.cost = cost
	return r
}

func (r *ProfileRepository) key(username string) string {
	return profileKeyPrefix + username
}

// Get 读取资料，不存在时返回 nil
func (r *ProfileRepository) Get(ctx context.Context, username string) (*model.Profile, error) {
	data, err := r.client.Get(ctx, r.key(username)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取用户资料失败: %w", err)
	}

	var profile model.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("解析用户资料失败: %w", err)
	}
	return &profile, nil
}

// Exists 用户名是否已存在
func (r *ProfileRepository) Exists(ctx context.Context, username string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(username)).Result()
	if err != nil {
		return false, fmt.Errorf("检查用户名失败: %w", err)
	}
	return n > 0, nil
}

// Create 规范化并保存新资料，密码以哈希形式存储。
// 不做原子占位：并发注册同名用户时后写入者覆盖先写入者。
func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return err
	}
	profile.Password = string(hash)
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	if profile.Gallery == nil {
		profile.Gallery = []string{}
	}
	return r.Save(ctx, profile)
}

// Save 覆盖写入资料
func (r *ProfileRepository) Save(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("序列化用户资料失败: %w", err)
	}
	if err := r.client.Set(ctx, r.key(profile.Username), data, 0).Err(); err != nil {
		return fmt.Errorf("保存用户资料失败: %w", err)
	}
	return nil
}

// CheckPassword 验证密码
func (r *ProfileRepository) CheckPassword(profile *model.Profile, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(password))
	return err == nil
}

// UpdatePassword 更新密码
func (r *ProfileRepository) UpdatePassword(ctx context.Context, profile *model.Profile, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), r.cost)
	if err != nil {
		return err
	}
	profile.Password = string(hash)
	return r.Save(ctx, profile)
}
