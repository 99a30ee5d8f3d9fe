package storage

import (
	"errors"
	"fmt"
	"strings"

	"repurpose/internal/config"
)

// NewR2Storage 归档到 Cloudflare R2，只支持 path style
func NewR2Storage(cfg config.Config) (Storage, error) {
	endpoint, err := r2Endpoint(cfg.StorageR2Endpoint, cfg.StorageR2AccountID)
	if err != nil {
		return nil, err
	}
	return newRemoteS3Storage("R2", cfg.StorageR2Bucket, cfg.StorageR2Prefix, s3ClientOptions{
		Region:          firstNonBlank(cfg.StorageR2Region, "auto"),
		Endpoint:        endpoint,
		AccessKeyID:     cfg.StorageR2AccessKeyID,
		SecretAccessKey: cfg.StorageR2SecretAccessKey,
		ForcePathStyle:  true,
	})
}

// r2Endpoint 显式 endpoint 优先，否则由 account id 拼出
func r2Endpoint(endpoint, accountID string) (string, error) {
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		return endpoint, nil
	}
	if accountID = strings.TrimSpace(accountID); accountID != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID), nil
	}
	return "", errors.New("storage: R2 needs STORAGE_R2_ENDPOINT or STORAGE_R2_ACCOUNT_ID")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
