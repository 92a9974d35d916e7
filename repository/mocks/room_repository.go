package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"truthordare/models"
	"truthordare/repository"
)

type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) CreateWithHost(ctx context.Context, room *models.Room, host *models.RoomMember) error {
	args := m.Called(ctx, room, host)
	return args.Error(0)
}

func (m *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*models.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) FindByJoinCode(ctx context.Context, code string) (*models.Room, error) {
	args := m.Called(ctx, code)
	if r := args.Get(0); r != nil {
		return r.(*models.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) NameExists(ctx context.Context, name, categorySlug, excludeID string) (bool, error) {
	args := m.Called(ctx, name, categorySlug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) FindView(ctx context.Context, id string) (*models.RoomView, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.RoomView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) ListActive(ctx context.Context, filter repository.RoomFilter) ([]models.RoomView, int64, error) {
	args := m.Called(ctx, filter)
	var views []models.RoomView
	if v := args.Get(0); v != nil {
		views = v.([]models.RoomView)
	}
	return views, args.Get(1).(int64), args.Error(2)
}

func (m *RoomRepository) ListByCreator(ctx context.Context, userID string) ([]models.RoomView, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]models.RoomView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *RoomRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *RoomRepository) FindExpired(ctx context.Context, cutoff time.Time) ([]models.Room, error) {
	args := m.Called(ctx, cutoff)
	if v := args.Get(0); v != nil {
		return v.([]models.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) DeleteRooms(ctx context.Context, ids []string) (int64, int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

var _ repository.RoomRepository = (*RoomRepository)(nil)
