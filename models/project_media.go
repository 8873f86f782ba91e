package models

import "time"

// ProjectMedia is one gallery image of a project.
type ProjectMedia struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProjectID uint      `json:"project_id" gorm:"not null;index:idx_project_media_order,priority:1"`
	FilePath  string    `json:"file_path" gorm:"size:255;not null"`
	AltText   *string   `json:"alt_text" gorm:"size:255"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0;index:idx_project_media_order,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMedia) TableName() string {
	return "project_media"
}
