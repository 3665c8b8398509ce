package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/cinereview/internal/model"
)

const (
	reviewPrefix = "reviews/"
	avatarPrefix = "avatars/"
)

// File 待上传的文件
type File struct {
	Name string
	Size int64
	Body io.Reader
}

// ImageStore 按约定生成对象键并上传图片，返回公开地址
type ImageStore struct {
	bucket Bucket
	now    func() time.Time
}

func NewImageStore(bucket Bucket) *ImageStore {
	return &ImageStore{bucket: bucket, now: time.Now}
}

// UploadPoster 海报键为 {毫秒时间戳}-{文件名}
func (s *ImageStore) UploadPoster(ctx context.Context, f *File) (string, error) {
	return s.upload(ctx, "", f)
}

// UploadReviewImage 评论配图键为 reviews/{毫秒时间戳}-{文件名}
func (s *ImageStore) UploadReviewImage(ctx context.Context, f *File) (string, error) {
	return s.upload(ctx, reviewPrefix, f)
}

func (s *ImageStore) UploadAvatar(ctx context.Context, f *File) (string, error) {
	return s.upload(ctx, avatarPrefix, f)
}

// ObjectKey 生成对象键
func (s *ImageStore) ObjectKey(prefix, name string) string {
	return fmt.Sprintf("%s%d-%s", prefix, s.now().UnixMilli(), cleanName(name))
}

func (s *ImageStore) upload(ctx context.Context, prefix string, f *File) (string, error) {
	if f == nil || f.Body == nil {
		return "", fmt.Errorf("%w: 文件为空", model.ErrStorageUploadFailed)
	}

	key := s.ObjectKey(prefix, f.Name)
	if err := s.bucket.PutObject(ctx, key, f.Body, f.Size, contentTypeOf(f.Name)); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrStorageUploadFailed, err)
	}
	return s.bucket.PublicURL(key), nil
}

// cleanName 只保留文件名部分，空格替换为下划线
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return strings.ReplaceAll(name, " ", "_")
}

func contentTypeOf(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
