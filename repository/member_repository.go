package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"truthordare/models"
)

type GormMemberRepository struct {
	db *gorm.DB
}

func NewGormMemberRepository(db *gorm.DB) *GormMemberRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMemberRepository")
	}
	return &GormMemberRepository{db: db}
}

func (r *GormMemberRepository) Create(ctx context.Context, member *models.RoomMember) error {
	return translate(r.db.WithContext(ctx).Create(member).Error, "create member")
}

// CreateWithinLimit locks the room row so concurrent joins are counted one at a time.
func (r *GormMemberRepository) CreateWithinLimit(ctx context.Context, member *models.RoomMember, limit int) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return translate(tx.Error, "begin join room")
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	var room models.Room
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", member.RoomID).
		First(&room).Error
	if err != nil {
		tx.Rollback()
		return translate(err, "lock room")
	}

	var count int64
	if err := tx.Model(&models.RoomMember{}).Where("room_id = ?", member.RoomID).Count(&count).Error; err != nil {
		tx.Rollback()
		return translate(err, "count members")
	}
	if count >= int64(limit) {
		tx.Rollback()
		return ErrCapacityReached
	}

	if err := tx.Create(member).Error; err != nil {
		tx.Rollback()
		return translate(err, "create member")
	}
	return translate(tx.Commit().Error, "commit join room")
}

func (r *GormMemberRepository) FindByID(ctx context.Context, id string) (*models.RoomMember, error) {
	var member models.RoomMember
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		return nil, translate(err, "find member")
	}
	return &member, nil
}

func (r *GormMemberRepository) FindByRoomAndUser(ctx context.Context, roomID, userID string) (*models.RoomMember, error) {
	var member models.RoomMember
	err := r.db.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).First(&member).Error
	if err != nil {
		return nil, translate(err, "find membership")
	}
	return &member, nil
}

func (r *GormMemberRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.RoomMember{})
	if res.Error != nil {
		return translate(res.Error, "delete member")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormMemberRepository) ListByRoom(ctx context.Context, roomID string) ([]models.MemberView, error) {
	members := make([]models.MemberView, 0)
	err := r.db.WithContext(ctx).Table("room_members").
		Select("room_members.*, users.name AS user_name, users.email AS user_email, users.image AS user_image").
		Joins("JOIN users ON users.id = room_members.user_id").
		Where("room_members.room_id = ?", roomID).
		Order("room_members.joined_at ASC, room_members.is_host DESC").
		Scan(&members).Error
	if err != nil {
		return nil, translate(err, "list room members")
	}
	return members, nil
}

func (r *GormMemberRepository) ListByUser(ctx context.Context, userID string) ([]models.UserRoomView, error) {
	rooms := make([]models.UserRoomView, 0)
	err := r.db.WithContext(ctx).Table("room_members").
		Select(`room_members.id AS member_id,
			rooms.id AS room_id,
			rooms.name AS room_name,
			rooms.is_public,
			rooms.category_slug,
			rooms.created_by,
			rooms.created_at,
			room_members.joined_at,
			room_members.is_host,
			rooms.created_by = room_members.user_id AS is_creator`).
		Joins("JOIN rooms ON rooms.id = room_members.room_id").
		Where("room_members.user_id = ?", userID).
		Order("room_members.joined_at ASC").
		Scan(&rooms).Error
	if err != nil {
		return nil, translate(err, "list user rooms")
	}
	return rooms, nil
}
