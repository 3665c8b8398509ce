package model

import "errors"

var (
	ErrInvalidCredentials  = errors.New("用户名或密码错误")
	ErrUserAlreadyExists   = errors.New("用户名已存在")
	ErrNotFound            = errors.New("资源不存在")
	ErrDuplicateReview     = errors.New("你已经为这部电影发表过评论")
	ErrIncompleteReview    = errors.New("评论数据不完整")
	ErrInvalidInput        = errors.New("参数无效")
	ErrStorageUploadFailed = errors.New("文件上传失败")
	ErrTimeout             = errors.New("加载超时")
	ErrRemoteStore         = errors.New("数据存储服务异常")
)
