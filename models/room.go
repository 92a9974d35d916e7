package models

import "time"

const (
	MinRoomLimit = 2
	MaxRoomLimit = 8
)

// Room is a single game session scoped to one category. JoinCode is set
// exactly when the room is private.
type Room struct {
	ID           string    `json:"id" gorm:"type:text;primaryKey"`
	Name         string    `json:"name" gorm:"type:text;not null;uniqueIndex:rooms_name_category_key,priority:1"`
	IsPublic     bool      `json:"isPublic" gorm:"not null;default:true"`
	Limit        int       `json:"limit" gorm:"column:player_limit;not null;default:2"`
	JoinCode     *string   `json:"joinCode" gorm:"type:text;uniqueIndex:rooms_join_code_key"`
	CategorySlug string    `json:"categorySlug" gorm:"type:text;not null;uniqueIndex:rooms_name_category_key,priority:2"`
	CreatedBy    string    `json:"createdBy" gorm:"type:text;not null;index"`
	CreatedAt    time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Age is measured against the supplied clock so callers control "now".
func (r *Room) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

func (r *Room) Expired(now time.Time, lifetime time.Duration) bool {
	return r.Age(now) >= lifetime
}

// RoomView is a room enriched with values computed at read time.
type RoomView struct {
	Room
	CreatorName   string `json:"creatorName"`
	CategoryName  string `json:"categoryName"`
	TotalPlayers  int64  `json:"totalPlayers"`
	TimeRemaining int64  `json:"timeRemaining" gorm:"-"`
}

// TimeRemaining returns whole seconds left before the room expires, never negative.
func TimeRemaining(createdAt, now time.Time, lifetime time.Duration) int64 {
	left := lifetime - now.Sub(createdAt)
	if left <= 0 {
		return 0
	}
	return int64(left / time.Second)
}
