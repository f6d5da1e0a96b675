package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloodbank/internal/config"
)

const (
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeS3 表示 Amazon S3 或兼容的存储后端。
	TypeS3 = "s3"
	// TypeOSS 表示阿里云 OSS 存储。
	TypeOSS = "oss"
	// TypeCOS 表示腾讯云 COS 存储。
	TypeCOS = "cos"
	// TypeR2 表示 Cloudflare R2 存储。
	TypeR2 = "r2"
)

// ErrObjectExists 目标对象已存在且未允许覆盖
var ErrObjectExists = errors.New("storage: object already exists")

// SaveOptions 控制存储后端如何持久化备份文件。
//
// 对象键为 Category/YYYY/MM/DD/BaseName.Extension，日期取自 At（为空时取当前 UTC 时间）。
// Overwrite 为 false 时，已存在的对象会返回 ErrObjectExists。
type SaveOptions struct {
	Category    string
	BaseName    string
	Extension   string
	ContentType string
	At          time.Time
	Overwrite   bool
}

// Storage 持久化字节数据并返回对象键（本地存储为相对路径）。
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
}

// NewStorage 根据配置实例化存储后端。
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		local, err := NewLocalStorage(cfg.StorageLocalDir)
		if err != nil {
			return nil, err
		}
		return local, nil
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

// checkPayload 所有后端共用的前置检查
func checkPayload(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
