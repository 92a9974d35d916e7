package repository

import (
	"context"
	"time"

	"truthordare/models"
)

// Constraint names declared by the migrations.
const (
	ConstraintCategorySlug   = "categories_slug_key"
	ConstraintUserEmail      = "users_email_key"
	ConstraintRoomName       = "rooms_name_category_key"
	ConstraintRoomJoinCode   = "rooms_join_code_key"
	ConstraintRoomVisibility = "rooms_join_code_visibility_check"
	ConstraintMembership     = "room_members_room_user_key"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	List(ctx context.Context, offset, limit int) ([]models.Question, int64, error)
	ListByCategory(ctx context.Context, categorySlug string) ([]models.Question, error)
	FindByID(ctx context.Context, id string) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id string) error
}

// RoomFilter selects rooms for listing. Zero values mean "no filter".
type RoomFilter struct {
	CreatedAfter time.Time
	CategorySlug string
	IsPublic     *bool
	Offset       int
	Limit        int
}

type RoomRepository interface {
	// CreateWithHost inserts the room and its host membership atomically.
	CreateWithHost(ctx context.Context, room *models.Room, host *models.RoomMember) error
	FindByID(ctx context.Context, id string) (*models.Room, error)
	FindByJoinCode(ctx context.Context, code string) (*models.Room, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	// NameExists ignores the room with excludeID, if any.
	NameExists(ctx context.Context, name, categorySlug, excludeID string) (bool, error)
	FindView(ctx context.Context, id string) (*models.RoomView, error)
	ListActive(ctx context.Context, filter RoomFilter) ([]models.RoomView, int64, error)
	ListByCreator(ctx context.Context, userID string) ([]models.RoomView, error)
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
	FindExpired(ctx context.Context, cutoff time.Time) ([]models.Room, error)
	// DeleteRooms removes memberships then rooms in one transaction.
	DeleteRooms(ctx context.Context, ids []string) (rooms int64, members int64, err error)
}

type MemberRepository interface {
	Create(ctx context.Context, member *models.RoomMember) error
	// CreateWithinLimit inserts the member unless the room already holds
	// limit members, in which case ErrCapacityReached is returned.
	CreateWithinLimit(ctx context.Context, member *models.RoomMember, limit int) error
	FindByID(ctx context.Context, id string) (*models.RoomMember, error)
	FindByRoomAndUser(ctx context.Context, roomID, userID string) (*models.RoomMember, error)
	Delete(ctx context.Context, id string) error
	ListByRoom(ctx context.Context, roomID string) ([]models.MemberView, error)
	ListByUser(ctx context.Context, userID string) ([]models.UserRoomView, error)
}
