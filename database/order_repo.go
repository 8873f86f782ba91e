package database

import (
	"context"

	"github.com/prevozkop/backend/errs"
	"github.com/prevozkop/backend/models"
	"gorm.io/gorm"
)

type OrderFilter struct {
	Status *models.OrderStatus
	Limit  int
	Offset int
}

type OrderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db}
}

func (r *OrderRepo) Add(ctx context.Context, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.OrderNew
	}
	return translate(r.db.WithContext(ctx).Create(order).Error)
}

// List returns the newest leads first.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}

	orders := make([]models.Order, 0, f.Limit)
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepo) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// UpdateStatus is the only mutation allowed on a stored lead.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		// MySQL reports 0 when the value did not change, so confirm the row exists.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.ErrNotFound
		}
	}
	return nil
}
