package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/storage"
	"github.com/user/cinereview/internal/utils"
)

const minPasswordLength = 4

// ProfileService 个人资料维护
type ProfileService struct {
	profiles ProfileDirectory
	images   ImageUploader
	log      *logrus.Entry
}

func NewProfileService(profiles ProfileDirectory, images ImageUploader) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		images:   images,
		log:      utils.Component("ProfileService"),
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	profile, err := s.profiles.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	if profile == nil {
		return nil, model.ErrNotFound
	}
	return profile, nil
}

// UpdateProfile 更新邮箱和简介
func (s *ProfileService) UpdateProfile(ctx context.Context, username, email, bio string) (*model.Profile, error) {
	profile, err := s.GetProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	profile.Email = strings.TrimSpace(email)
	profile.Bio = bio
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	return profile, nil
}

// ChangePassword 需要当前密码正确，新密码至少 4 位
func (s *ProfileService) ChangePassword(ctx context.Context, username, current, next string) error {
	if len(next) < minPasswordLength {
		return fmt.Errorf("%w: 新密码至少 %d 位", model.ErrInvalidInput, minPasswordLength)
	}

	profile, err := s.GetProfile(ctx, username)
	if err != nil {
		return err
	}
	if !s.profiles.CheckPassword(profile, current) {
		return model.ErrInvalidCredentials
	}

	if err := s.profiles.UpdatePassword(ctx, profile, next); err != nil {
		return fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	s.log.WithField("username", username).Info("密码已修改")
	return nil
}

// UpdateAvatar 上传头像并保存公开地址
func (s *ProfileService) UpdateAvatar(ctx context.Context, username string, f *storage.File) (*model.Profile, error) {
	profile, err := s.GetProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	url, err := s.images.UploadAvatar(ctx, f)
	if err != nil {
		return nil, err
	}

	profile.AvatarURL = url
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteStore, err)
	}
	return profile, nil
}
