package models

import "time"

type RoomMember struct {
	ID       string    `json:"id" gorm:"type:text;primaryKey"`
	RoomID   string    `json:"roomId" gorm:"type:text;not null;uniqueIndex:room_members_room_user_key,priority:1"`
	UserID   string    `json:"userId" gorm:"type:text;not null;uniqueIndex:room_members_room_user_key,priority:2"`
	JoinedAt time.Time `json:"joinedAt" gorm:"not null"`
	IsHost   bool      `json:"isHost" gorm:"not null;default:false"`
}

// MemberView is a membership with the member's display attributes.
type MemberView struct {
	RoomMember
	UserName  string  `json:"userName"`
	UserEmail string  `json:"userEmail"`
	UserImage *string `json:"userImage"`
}

// UserRoomView is one of a user's memberships with the room's attributes.
type UserRoomView struct {
	MemberID     string    `json:"memberId"`
	RoomID       string    `json:"roomId"`
	RoomName     string    `json:"roomName"`
	IsPublic     bool      `json:"isPublic"`
	CategorySlug string    `json:"categorySlug"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	JoinedAt     time.Time `json:"joinedAt"`
	IsHost       bool      `json:"isHost"`
	IsCreator    bool      `json:"isCreator"`
}
