package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"truthordare/models"
	"truthordare/repository"
)

type MemberRepository struct {
	mock.Mock
}

func (m *MemberRepository) Create(ctx context.Context, member *models.RoomMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MemberRepository) CreateWithinLimit(ctx context.Context, member *models.RoomMember, limit int) error {
	args := m.Called(ctx, member, limit)
	return args.Error(0)
}

func (m *MemberRepository) FindByID(ctx context.Context, id string) (*models.RoomMember, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.RoomMember), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MemberRepository) FindByRoomAndUser(ctx context.Context, roomID, userID string) (*models.RoomMember, error) {
	args := m.Called(ctx, roomID, userID)
	if v := args.Get(0); v != nil {
		return v.(*models.RoomMember), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MemberRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MemberRepository) ListByRoom(ctx context.Context, roomID string) ([]models.MemberView, error) {
	args := m.Called(ctx, roomID)
	if v := args.Get(0); v != nil {
		return v.([]models.MemberView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MemberRepository) ListByUser(ctx context.Context, userID string) ([]models.UserRoomView, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]models.UserRoomView), args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repository.MemberRepository = (*MemberRepository)(nil)
