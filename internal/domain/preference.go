// Package domain 定义领域模型和接口
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrPreferenceNotFound no value stored under the key
// ErrPreferenceNotFound 该键下没有存储值
var ErrPreferenceNotFound = errors.New("preference not found")

// Preference 偏好设置领域模型
type Preference struct {
	Key       string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PreferenceRepository 偏好设置仓储接口
type PreferenceRepository interface {
	// Get 根据键获取偏好，不存在时返回 ErrPreferenceNotFound
	Get(ctx context.Context, key string) (*Preference, error)

	// Set 写入或覆盖偏好
	Set(ctx context.Context, key, value string) error
}
