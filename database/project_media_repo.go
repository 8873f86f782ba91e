package database

import (
	"context"
	"errors"

	"github.com/prevozkop/backend/models"
	"gorm.io/gorm"
)

type ProjectMediaRepo struct {
	db *gorm.DB
}

func NewProjectMediaRepo(db *gorm.DB) *ProjectMediaRepo {
	return &ProjectMediaRepo{db}
}

// FindByProject returns the gallery in display order.
func (r *ProjectMediaRepo) FindByProject(ctx context.Context, projectID uint) ([]models.ProjectMedia, error) {
	media := []models.ProjectMedia{}
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order ASC").
		Order("id ASC").
		Find(&media).Error
	return media, err
}

func (r *ProjectMediaRepo) Add(ctx context.Context, media *models.ProjectMedia) error {
	return translate(r.db.WithContext(ctx).Create(media).Error)
}

// Delete removes one gallery row of the project and returns it, or nil when
// there was nothing to delete.
func (r *ProjectMediaRepo) Delete(ctx context.Context, projectID, mediaID uint) (*models.ProjectMedia, error) {
	var media models.ProjectMedia
	err := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", mediaID, projectID).
		First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&models.ProjectMedia{}, media.ID).Error; err != nil {
		return nil, err
	}
	return &media, nil
}
