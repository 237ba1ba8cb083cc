package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campolibero/campo_market/internal/apperr"
	"github.com/campolibero/campo_market/internal/models"
)

func (r *GormRepo) CreateField(ctx context.Context, f *models.Field) error {
	return r.DB.WithContext(ctx).Create(f).Error
}

func (r *GormRepo) FindFieldByID(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	var field models.Field
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&field).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &field, nil
}

func (r *GormRepo) ListFields(ctx context.Context, offset, limit int) ([]models.Field, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Field{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Field
	if err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormRepo) UpdateField(ctx context.Context, f *models.Field) error {
	return r.DB.WithContext(ctx).Save(f).Error
}

func (r *GormRepo) DeleteField(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("field_id = ?", id).Delete(&models.FieldLike{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Field{}).Error
	})
}

// ToggleLike flips the like of userID on fieldID and reports the resulting
// state plus the new like count.
func (r *GormRepo) ToggleLike(ctx context.Context, fieldID, userID uuid.UUID) (bool, int64, error) {
	var liked bool
	var count int64

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("field_id = ? AND user_id = ?", fieldID, userID).Delete(&models.FieldLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.Create(&models.FieldLike{FieldID: fieldID, UserID: userID}).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&models.FieldLike{}).Where("field_id = ?", fieldID).Count(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (r *GormRepo) FieldLikers(ctx context.Context, fieldID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).
		Joins("JOIN field_likes ON field_likes.user_id = users.id").
		Where("field_likes.field_id = ?", fieldID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
