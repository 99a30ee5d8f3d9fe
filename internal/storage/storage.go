package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"repurpose/internal/config"
)

const (
	// TypeLocal 本地文件系统存储
	TypeLocal = "local"
	// TypeS3 Amazon S3 或兼容的对象存储（MinIO、OSS/COS 的 S3 兼容端点）
	TypeS3 = "s3"
	// TypeR2 Cloudflare R2 存储
	TypeR2 = "r2"
)

// SaveOptions 控制对象的存放位置
//
// Category 作为一级目录，BaseName 为空时使用时间戳命名，Extension 不含前导点。
type SaveOptions struct {
	Category     string
	Extension    string
	BaseName     string
	SkipIfExists bool
}

// Storage 持久化字节内容并返回对象 key（本地存储为相对路径）
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
}

// NewStorage 根据配置实例化存储后端，STORAGE_TYPE 为空时返回 nil 表示不归档
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "":
		return nil, nil
	case TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

// SaveJSON 序列化 v 并以 .json 保存
func SaveJSON(ctx context.Context, store Storage, category, baseName string, v any) (string, error) {
	if store == nil {
		return "", fmt.Errorf("storage not configured")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal archive: %w", err)
	}
	return store.Save(ctx, data, SaveOptions{
		Category:  category,
		Extension: "json",
		BaseName:  baseName,
	})
}
