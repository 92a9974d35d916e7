package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"truthordare/models"
)

const roomViewColumns = `rooms.*,
	users.name AS creator_name,
	categories.name AS category_name,
	(SELECT COUNT(*) FROM room_members rm WHERE rm.room_id = rooms.id) AS total_players`

type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) CreateWithHost(ctx context.Context, room *models.Room, host *models.RoomMember) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return translate(tx.Error, "begin create room")
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := tx.Create(room).Error; err != nil {
		tx.Rollback()
		return translate(err, "create room")
	}
	host.RoomID = room.ID
	if err := tx.Create(host).Error; err != nil {
		tx.Rollback()
		return translate(err, "create host member")
	}
	return translate(tx.Commit().Error, "commit create room")
}

func (r *GormRoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("find room %s", id))
	}
	return &room, nil
}

func (r *GormRoomRepository) FindByJoinCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Where("join_code = ?", code).First(&room).Error; err != nil {
		return nil, translate(err, "find room by join code")
	}
	return &room, nil
}

func (r *GormRoomRepository) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Where("join_code = ?", code).Count(&count).Error
	if err != nil {
		return false, translate(err, "probe join code")
	}
	return count > 0, nil
}

func (r *GormRoomRepository) NameExists(ctx context.Context, name, categorySlug, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("name = ? AND category_slug = ?", name, categorySlug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, translate(err, "probe room name")
	}
	return count > 0, nil
}

func (r *GormRoomRepository) views(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("rooms").
		Joins("JOIN users ON users.id = rooms.created_by").
		Joins("JOIN categories ON categories.slug = rooms.category_slug")
}

func (r *GormRoomRepository) FindView(ctx context.Context, id string) (*models.RoomView, error) {
	var views []models.RoomView
	err := r.views(ctx).Select(roomViewColumns).Where("rooms.id = ?", id).Limit(1).Scan(&views).Error
	if err != nil {
		return nil, translate(err, "find room view")
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

func (r *GormRoomRepository) ListActive(ctx context.Context, filter RoomFilter) ([]models.RoomView, int64, error) {
	q := r.views(ctx).Where("rooms.created_at >= ?", filter.CreatedAfter)
	if filter.CategorySlug != "" {
		q = q.Where("rooms.category_slug = ?", filter.CategorySlug)
	}
	if filter.IsPublic != nil {
		q = q.Where("rooms.is_public = ?", *filter.IsPublic)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count active rooms")
	}

	views := make([]models.RoomView, 0)
	err := q.Session(&gorm.Session{}).
		Select(roomViewColumns).
		Order("rooms.created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Scan(&views).Error
	if err != nil {
		return nil, 0, translate(err, "list active rooms")
	}
	return views, total, nil
}

func (r *GormRoomRepository) ListByCreator(ctx context.Context, userID string) ([]models.RoomView, error) {
	views := make([]models.RoomView, 0)
	err := r.views(ctx).
		Select(roomViewColumns).
		Where("rooms.created_by = ?", userID).
		Order("rooms.created_at ASC").
		Scan(&views).Error
	if err != nil {
		return nil, translate(err, "list rooms by creator")
	}
	return views, nil
}

func (r *GormRoomRepository) Update(ctx context.Context, room *models.Room) error {
	res := r.db.WithContext(ctx).Model(room).
		Select("name", "is_public", "player_limit", "join_code", "category_slug", "updated_at").
		Updates(room)
	if res.Error != nil {
		return translate(res.Error, "update room")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the room; memberships go with it via ON DELETE CASCADE.
func (r *GormRoomRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Room{})
	if res.Error != nil {
		return translate(res.Error, "delete room")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRoomRepository) FindExpired(ctx context.Context, cutoff time.Time) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Order("created_at ASC").Find(&rooms).Error
	if err != nil {
		return nil, translate(err, "find expired rooms")
	}
	return rooms, nil
}

func (r *GormRoomRepository) DeleteRooms(ctx context.Context, ids []string) (rooms int64, members int64, err error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, 0, translate(tx.Error, "begin delete rooms")
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	res := tx.Where("room_id IN ?", ids).Delete(&models.RoomMember{})
	if res.Error != nil {
		tx.Rollback()
		return 0, 0, translate(res.Error, "delete room members")
	}
	members = res.RowsAffected

	res = tx.Where("id IN ?", ids).Delete(&models.Room{})
	if res.Error != nil {
		tx.Rollback()
		return 0, 0, translate(res.Error, "delete rooms")
	}
	rooms = res.RowsAffected

	if err := tx.Commit().Error; err != nil {
		return 0, 0, translate(err, "commit delete rooms")
	}
	return rooms, members, nil
}
