package session

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// MarkerStore 以浏览上下文 ID 为键保存登录用户名，"" 表示没有标记
type MarkerStore interface {
	Get(ctx context.Context, sid string) (string, error)
	Set(ctx context.Context, sid, username string) error
	Clear(ctx context.Context, sid string) error
}

const durableKeyPrefix = "session:durable:" // session:durable:{sid}

// RedisMarkers 持久标记，不设过期，只在登出或强制登出时删除
type RedisMarkers struct {
	client *redis.Client
}

func NewRedisMarkers(client *redis.Client) *RedisMarkers {
	return &RedisMarkers{client: client}
}

func (m *RedisMarkers) key(sid string) string {
	return durableKeyPrefix + sid
}

func (m *RedisMarkers) Get(ctx context.Context, sid string) (string, error) {
	username, err := m.client.Get(ctx, m.key(sid)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("读取持久会话标记失败: %w", err)
	}
	return username, nil
}

func (m *RedisMarkers) Set(ctx context.Context, sid, username string) error {
	if err := m.client.Set(ctx, m.key(sid), username, 0).Err(); err != nil {
		return fmt.Errorf("写入持久会话标记失败: %w", err)
	}
	return nil
}

func (m *RedisMarkers) Clear(ctx context.Context, sid string) error {
	if err := m.client.Del(ctx, m.key(sid)).Err(); err != nil {
		return fmt.Errorf("删除持久会话标记失败: %w", err)
	}
	return nil
}

// MemoryMarkers 标签页级标记，保存在进程内存中。
// 空闲超过 idleTTL 或进程重启后消失，相当于标签页被关闭。
type MemoryMarkers struct {
	store *cache.Cache
}

func NewMemoryMarkers(idleTTL time.Duration) *MemoryMarkers {
	return &MemoryMarkers{store: cache.New(idleTTL, 2*idleTTL)}
}

// Get 命中时顺延过期时间
func (m *MemoryMarkers) Get(_ context.Context, sid string) (string, error) {
	v, ok := m.store.Get(sid)
	if !ok {
		return "", nil
	}
	username := v.(string)
	m.store.SetDefault(sid, username)
	return username, nil
}

func (m *MemoryMarkers) Set(_ context.Context, sid, username string) error {
	m.store.SetDefault(sid, username)
	return nil
}

func (m *MemoryMarkers) Clear(_ context.Context, sid string) error {
	m.store.Delete(sid)
	return nil
}
