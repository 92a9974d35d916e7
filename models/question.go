package models

import "time"

type Question struct {
	ID           string    `json:"id" gorm:"type:text;primaryKey"`
	CategorySlug string    `json:"categorySlug" gorm:"type:text;not null;index"`
	Content      string    `json:"content" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
