package repository

import (
	"context"
	"errors"

	"olimpiad/internal/model"

	"gorm.io/gorm"
)

// FeatureRepository is the MySQL feature registry.
type FeatureRepository struct {
	db *gorm.DB
}

func NewFeatureRepository(db *gorm.DB) *FeatureRepository {
	return &FeatureRepository{db: db}
}

func (r *FeatureRepository) List(ctx context.Context) ([]*model.DynamicFeature, error) {
	var features []*model.DynamicFeature
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&features).Error
	return features, err
}

func (r *FeatureRepository) GetByID(ctx context.Context, id string) (*model.DynamicFeature, error) {
	var f model.DynamicFeature
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *FeatureRepository) Create(ctx context.Context, f *model.DynamicFeature) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FeatureRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.DynamicFeature{})
	return res.RowsAffected, res.Error
}
