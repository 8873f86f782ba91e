package database

import (
	"context"

	"github.com/prevozkop/backend/models"
	"gorm.io/gorm"
)

// ProjectFilter narrows a project listing. A nil Status lists every row.
type ProjectFilter struct {
	Status *models.PublishStatus
	Limit  int
	Offset int
}

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// List returns projects newest first, by publish date when set.
func (r *ProjectRepo) List(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	q := r.db.WithContext(ctx).Model(&models.Project{})
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}

	projects := make([]models.Project, 0, f.Limit)
	err := q.Order("COALESCE(published_at, created_at) DESC").
		Order("id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&projects).Error
	return projects, err
}

// FindByID returns a project by its ID
func (r *ProjectRepo) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

func (r *ProjectRepo) FindBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&project).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

// Add inserts a new project into the database
func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	return translate(r.db.WithContext(ctx).Create(project).Error)
}

// Update applies a partial update. updated_at is bumped by gorm.
func (r *ProjectRepo) Update(ctx context.Context, id uint, patch models.ProjectPatch) error {
	return translate(r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Updates(patch.Columns()).Error)
}

func (r *ProjectRepo) SetHeroImage(ctx context.Context, id uint, path string) error {
	return translate(r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Update("hero_image", path).Error)
}

// Delete removes the project and its gallery rows in one transaction.
// Deleting a missing id is not an error.
func (r *ProjectRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMedia{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}
