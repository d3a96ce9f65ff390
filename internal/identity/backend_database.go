package identity

import (
	"context"

	"github.com/haierkeys/screen-connect-controller/internal/domain"
	"github.com/pkg/errors"
)

// DatabaseBackend stores values in the preference table
// DatabaseBackend 存储在偏好表中
type DatabaseBackend struct {
	repo domain.PreferenceRepository
}

// NewDatabaseBackend wraps a preference repository
// NewDatabaseBackend 包装偏好仓储
func NewDatabaseBackend(repo domain.PreferenceRepository) *DatabaseBackend {
	return &DatabaseBackend{repo: repo}
}

func (b *DatabaseBackend) Get(ctx context.Context, key string) (string, bool, error) {
	p, err := b.repo.Get(ctx, key)
	if errors.Is(err, domain.ErrPreferenceNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.Value, true, nil
}

func (b *DatabaseBackend) Set(ctx context.Context, key, value string) error {
	return b.repo.Set(ctx, key, value)
}

func (b *DatabaseBackend) Name() string { return "database" }
