package models

import "time"

// Category groups questions and rooms. Slug is derived from the name once and
// never rewritten, since rooms and questions reference it.
type Category struct {
	ID          string    `json:"id" gorm:"type:text;primaryKey"`
	Name        string    `json:"name" gorm:"type:text;not null"`
	Slug        string    `json:"slug" gorm:"type:text;not null;uniqueIndex:categories_slug_key"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
