package model

import (
	"time"
)

// Profile 用户资料，以 JSON 形式存放在用户名对应的键下
type Profile struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"` // bcrypt 哈希
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	Gallery   []string  `json:"gallery"`
}

// PublicProfile 对外返回的资料（不含密码）
type PublicProfile struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	Gallery   []string  `json:"gallery"`
}

// Public 去掉敏感字段
func (p *Profile) Public() PublicProfile {
	gallery := p.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	return PublicProfile{
		Username:  p.Username,
		Email:     p.Email,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
		Gallery:   gallery,
	}
}
