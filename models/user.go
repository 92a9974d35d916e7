package models

import "time"

type User struct {
	ID           string    `json:"id" gorm:"type:text;primaryKey"`
	Name         string    `json:"name" gorm:"type:text;not null"`
	Email        string    `json:"email" gorm:"type:text;not null;uniqueIndex:users_email_key"`
	Image        *string   `json:"image"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Session struct {
	ID        string    `json:"id" gorm:"type:text;primaryKey"`
	UserID    string    `json:"userId" gorm:"type:text;not null;index"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	IPAddress string    `json:"ipAddress" gorm:"type:text"`
	UserAgent string    `json:"userAgent" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
