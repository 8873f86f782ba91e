package models

import (
	"time"

	"gorm.io/datatypes"
)

// Project is a portfolio entry shown on the public site once published.
type Project struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"size:255;not null"`
	Slug        string         `json:"slug" gorm:"size:191;not null;uniqueIndex"`
	Excerpt     *string        `json:"excerpt" gorm:"type:text"`
	Body        *string        `json:"body" gorm:"type:text"`
	HeroImage   *string        `json:"hero_image" gorm:"size:255"`
	Status      PublishStatus  `json:"status" gorm:"size:20;not null;default:draft;index"`
	PublishedAt *time.Time     `json:"published_at"`
	Tags        datatypes.JSON `json:"tags"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProjectPatch carries the columns an update touches. Unset fields are left alone.
type ProjectPatch struct {
	Title       Field[string]
	Slug        Field[string]
	Excerpt     Field[string]
	Body        Field[string]
	Status      Field[PublishStatus]
	PublishedAt Field[time.Time]
	Tags        Field[datatypes.JSON]
}

func (p ProjectPatch) Columns() map[string]any {
	cols := make(map[string]any)
	assign(cols, "title", p.Title)
	assign(cols, "slug", p.Slug)
	assign(cols, "excerpt", p.Excerpt)
	assign(cols, "body", p.Body)
	if p.Status.Present() {
		cols["status"] = string(p.Status.Value)
	}
	assign(cols, "published_at", p.PublishedAt)
	assign(cols, "tags", p.Tags)
	return cols
}

func (p ProjectPatch) Empty() bool {
	return len(p.Columns()) == 0
}
