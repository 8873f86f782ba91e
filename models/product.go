package models

import (
	"time"

	"gorm.io/datatypes"
)

// Product is a catalogue item (concrete mix, paver, aggregate...).
type Product struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Name             string         `json:"name" gorm:"size:255;not null"`
	Slug             string         `json:"slug" gorm:"size:191;not null;uniqueIndex"`
	Category         string         `json:"category" gorm:"size:100;not null;index"`
	ProductType      *string        `json:"product_type" gorm:"size:100"`
	ShortDescription *string        `json:"short_description" gorm:"type:text"`
	Description      *string        `json:"description" gorm:"type:text"`
	Applications     *string        `json:"applications" gorm:"type:text"`
	Specs            datatypes.JSON `json:"specs"`
	Image            *string        `json:"image" gorm:"size:255"`
	Document         *string        `json:"document" gorm:"size:255"`
	Status           PublishStatus  `json:"status" gorm:"size:20;not null;default:draft;index"`
	SortOrder        int            `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type ProductPatch struct {
	Name             Field[string]
	Slug             Field[string]
	Category         Field[string]
	ProductType      Field[string]
	ShortDescription Field[string]
	Description      Field[string]
	Applications     Field[string]
	Specs            Field[datatypes.JSON]
	Status           Field[PublishStatus]
	SortOrder        Field[int]
}

func (p ProductPatch) Columns() map[string]any {
	cols := make(map[string]any)
	assign(cols, "name", p.Name)
	assign(cols, "slug", p.Slug)
	assign(cols, "category", p.Category)
	assign(cols, "product_type", p.ProductType)
	assign(cols, "short_description", p.ShortDescription)
	assign(cols, "description", p.Description)
	assign(cols, "applications", p.Applications)
	assign(cols, "specs", p.Specs)
	if p.Status.Present() {
		cols["status"] = string(p.Status.Value)
	}
	if p.SortOrder.Set {
		// sort_order is NOT NULL; null resets it.
		cols["sort_order"] = p.SortOrder.Value
	}
	return cols
}

func (p ProductPatch) Empty() bool {
	return len(p.Columns()) == 0
}
