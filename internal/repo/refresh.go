package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campolibero/campo_market/internal/apperr"
	"github.com/campolibero/campo_market/internal/models"
)

func (r *GormRepo) SaveRefreshToken(ctx context.Context, token string, userID uuid.UUID) error {
	row := models.RefreshToken{
		Token:  token,
		UserID: userID,
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	return nil
}

func (r *GormRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	return &row, nil
}

// DeleteRefreshToken removes the row for the exact token string and reports
// whether a row was actually deleted. Two callers racing on the same token
// both issue the conditional delete, and only one of them sees RowsAffected=1.
func (r *GormRepo) DeleteRefreshToken(ctx context.Context, token string) (bool, error) {
	result := r.DB.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
