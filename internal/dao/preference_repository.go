package dao

import (
	"context"

	"github.com/haierkeys/screen-connect-controller/internal/domain"
	"github.com/haierkeys/screen-connect-controller/internal/model"
	"github.com/haierkeys/screen-connect-controller/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// preferenceRepository 实现 domain.PreferenceRepository 接口
type preferenceRepository struct {
	dao *Dao
}

// NewPreferenceRepository 创建 PreferenceRepository 实例
func NewPreferenceRepository(dao *Dao) domain.PreferenceRepository {
	return &preferenceRepository{dao: dao}
}

func (r *preferenceRepository) db(ctx context.Context) (*gorm.DB, error) {
	db, err := r.dao.UseWithMigrate("Preference")
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

// toDomain 将数据库模型转换为领域模型
func (r *preferenceRepository) toDomain(m *model.Preference) *domain.Preference {
	if m == nil {
		return nil
	}
	return &domain.Preference{
		Key:       m.Key,
		Value:     m.Value,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// Get 根据键获取偏好
func (r *preferenceRepository) Get(ctx context.Context, key string) (*domain.Preference, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var m model.Preference
	err = db.Where(map[string]any{"key": key}).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPreferenceNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get preference %s", key)
	}
	return r.toDomain(&m), nil
}

// Set 写入或覆盖偏好
func (r *preferenceRepository) Set(ctx context.Context, key, value string) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	m := &model.Preference{Key: key, Value: value}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		r.dao.Logger().Warn("preference upsert failed",
			zap.String(logger.FieldKey, key),
			zap.String(logger.FieldMethod, "preferenceRepository.Set"),
			zap.Error(err),
		)
		return errors.Wrapf(err, "set preference %s", key)
	}
	return nil
}
