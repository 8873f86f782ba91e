package database

import (
	"context"
	"strings"

	"github.com/prevozkop/backend/models"
	"gorm.io/gorm"
)

// ProductFilter narrows a product listing. Query is a case-insensitive
// substring matched against name, short_description and description.
type ProductFilter struct {
	Status   *models.PublishStatus
	Category string
	Query    string
	Limit    int
	Offset   int
}

type ProductRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{db}
}

func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		q = q.Where(
			"(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(COALESCE(short_description, '')) LIKE ? ESCAPE '!' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '!')",
			pattern, pattern, pattern,
		)
	}

	products := make([]models.Product, 0, f.Limit)
	err := q.Order("sort_order ASC").
		Order("name ASC").
		Order("id ASC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&products).Error
	return products, err
}

func (r *ProductRepo) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepo) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepo) Add(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *ProductRepo) Update(ctx context.Context, id uint, patch models.ProductPatch) error {
	return translate(r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(patch.Columns()).Error)
}

func (r *ProductRepo) SetImage(ctx context.Context, id uint, path string) error {
	return r.setColumn(ctx, id, "image", path)
}

func (r *ProductRepo) SetDocument(ctx context.Context, id uint, path string) error {
	return r.setColumn(ctx, id, "document", path)
}

func (r *ProductRepo) setColumn(ctx context.Context, id uint, column, value string) error {
	return translate(r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update(column, value).Error)
}

// Delete removes a product. Deleting a missing id is not an error.
func (r *ProductRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

// escapeLike makes %, _ and the escape character itself literal.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
