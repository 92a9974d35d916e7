package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"truthordare/migrations"
	"truthordare/models"
	"truthordare/repository"
)

// openTestDB connects to TEST_DATABASE_URL and applies the migrations.
// Tests are skipped when no database is configured.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("skip: TEST_DATABASE_URL not set")
	}
	if err := migrations.Up(dsn); err != nil {
		t.Skipf("skip: migrate failed: %v", err)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Skipf("skip: db not available: %v", err)
	}
	return db
}

func seedUserAndCategory(t *testing.T, db *gorm.DB) (*models.User, *models.Category) {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	user := &models.User{ID: uuid.NewString(), Name: "tester", Email: "tester-" + suffix + "@example.com", PasswordHash: "x"}
	require.NoError(t, repository.NewGormUserRepository(db).Create(ctx, user))

	category := &models.Category{ID: uuid.NewString(), Name: "Classic " + suffix, Slug: "classic-" + suffix}
	require.NoError(t, repository.NewGormCategoryRepository(db).Create(ctx, category))

	t.Cleanup(func() {
		db.Exec("DELETE FROM categories WHERE id = ?", category.ID)
		db.Exec("DELETE FROM users WHERE id = ?", user.ID)
	})
	return user, category
}

func newRoom(name string, user *models.User, category *models.Category, createdAt time.Time) (*models.Room, *models.RoomMember) {
	room := &models.Room{
		ID:           uuid.NewString(),
		Name:         name,
		IsPublic:     true,
		Limit:        2,
		CategorySlug: category.Slug,
		CreatedBy:    user.ID,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	host := &models.RoomMember{ID: uuid.NewString(), UserID: user.ID, JoinedAt: createdAt, IsHost: true}
	return room, host
}

func TestRoomRepository_ConstraintsMapToNames(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, category := seedUserAndCategory(t, db)
	rooms := repository.NewGormRoomRepository(db)
	members := repository.NewGormMemberRepository(db)

	room, host := newRoom("abc", user, category, time.Now())
	require.NoError(t, rooms.CreateWithHost(ctx, room, host))

	dup, dupHost := newRoom("abc", user, category, time.Now())
	err := rooms.CreateWithHost(ctx, dup, dupHost)
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
	assert.True(t, repository.IsConstraint(err, repository.ConstraintRoomName))

	again := &models.RoomMember{ID: uuid.NewString(), RoomID: room.ID, UserID: user.ID, JoinedAt: time.Now()}
	err = members.Create(ctx, again)
	assert.True(t, repository.IsConstraint(err, repository.ConstraintMembership))

	badVisibility, badHost := newRoom("nocode", user, category, time.Now())
	badVisibility.IsPublic = false
	err = rooms.CreateWithHost(ctx, badVisibility, badHost)
	assert.ErrorIs(t, err, repository.ErrCheckViolation)

	_, err = rooms.FindByID(ctx, badVisibility.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "failed create must roll back")
}

func TestRoomRepository_ListActiveAndDeleteRooms(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, category := seedUserAndCategory(t, db)
	rooms := repository.NewGormRoomRepository(db)

	now := time.Now()
	fresh, freshHost := newRoom("fresh", user, category, now.Add(-time.Minute))
	stale, staleHost := newRoom("stale", user, category, now.Add(-30*time.Minute))
	require.NoError(t, rooms.CreateWithHost(ctx, fresh, freshHost))
	require.NoError(t, rooms.CreateWithHost(ctx, stale, staleHost))

	views, total, err := rooms.ListActive(ctx, repository.RoomFilter{
		CreatedAfter: now.Add(-15 * time.Minute),
		CategorySlug: category.Slug,
		Limit:        10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, views, 1)
	assert.Equal(t, fresh.ID, views[0].ID)
	assert.EqualValues(t, 1, views[0].TotalPlayers)
	assert.Equal(t, category.Name, views[0].CategoryName)

	expired, err := rooms.FindExpired(ctx, now.Add(-15*time.Minute))
	require.NoError(t, err)
	var ids []string
	for _, r := range expired {
		if r.CategorySlug == category.Slug {
			ids = append(ids, r.ID)
		}
	}
	require.Equal(t, []string{stale.ID}, ids)

	deletedRooms, deletedMembers, err := rooms.DeleteRooms(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deletedRooms)
	assert.EqualValues(t, 1, deletedMembers)

	deletedRooms, deletedMembers, err = rooms.DeleteRooms(ctx, ids)
	require.NoError(t, err)
	assert.Zero(t, deletedRooms)
	assert.Zero(t, deletedMembers)
}

func TestMemberRepository_CreateWithinLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, category := seedUserAndCategory(t, db)
	rooms := repository.NewGormRoomRepository(db)
	members := repository.NewGormMemberRepository(db)
	users := repository.NewGormUserRepository(db)

	room, host := newRoom("capped", user, category, time.Now())
	require.NoError(t, rooms.CreateWithHost(ctx, room, host))

	var guests []*models.User
	for i := 0; i < 2; i++ {
		g := &models.User{ID: uuid.NewString(), Name: "guest", Email: uuid.NewString() + "@example.com", PasswordHash: "x"}
		require.NoError(t, users.Create(ctx, g))
		guests = append(guests, g)
		t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = ?", g.ID) })
	}

	first := &models.RoomMember{ID: uuid.NewString(), RoomID: room.ID, UserID: guests[0].ID, JoinedAt: time.Now()}
	require.NoError(t, members.CreateWithinLimit(ctx, first, room.Limit))

	second := &models.RoomMember{ID: uuid.NewString(), RoomID: room.ID, UserID: guests[1].ID, JoinedAt: time.Now()}
	assert.ErrorIs(t, members.CreateWithinLimit(ctx, second, room.Limit), repository.ErrCapacityReached)

	list, err := members.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsHost)
	assert.Equal(t, "tester", list[0].UserName)

	mine, err := members.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, mine)
	assert.True(t, mine[0].IsCreator)
}
