package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"truthordare/logger"
	"truthordare/metrics"
	"truthordare/models"
	"truthordare/repository"
)

type MemberService struct {
	rooms        repository.RoomRepository
	members      repository.MemberRepository
	users        repository.UserRepository
	notifier     RoomNotifier
	lifetime     time.Duration
	enforceLimit bool
	now          func() time.Time
	log          zerolog.Logger
}

func NewMemberService(
	rooms repository.RoomRepository,
	members repository.MemberRepository,
	users repository.UserRepository,
	notifier RoomNotifier,
	lifetime time.Duration,
	enforceLimit bool,
) *MemberService {
	if lifetime <= 0 {
		lifetime = DefaultRoomLifetime
	}
	return &MemberService{
		rooms:        rooms,
		members:      members,
		users:        users,
		notifier:     notifierOrNoop(notifier),
		lifetime:     lifetime,
		enforceLimit: enforceLimit,
		now:          time.Now,
		log:          logger.Component("members"),
	}
}

type JoinPrivateRoomInput struct {
	JoinCode string `json:"joinCode" validate:"required,notblank"`
	UserID   string `json:"userId"`
}

type JoinResult struct {
	Room   models.Room       `json:"room"`
	Member models.RoomMember `json:"member"`
}

func (s *MemberService) JoinPublicRoom(ctx context.Context, roomID, userID string) (*JoinResult, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, notFoundOr(err, "Room not found", map[string]string{"roomId": roomID})
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found", map[string]string{"userId": userID})
	}
	if !room.IsPublic {
		return nil, Forbidden(CodePrivateRoomDenied, "This room is private, join it with its join code")
	}
	return s.join(ctx, room, user)
}

// JoinPrivateRoom looks the room up by join code only, never by room id.
func (s *MemberService) JoinPrivateRoom(ctx context.Context, in JoinPrivateRoomInput) (*JoinResult, error) {
	in.JoinCode = strings.TrimSpace(in.JoinCode)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	// No room can hold a code of another shape.
	if !IsValidJoinCode(in.JoinCode) {
		return nil, NotFound("No room found with this join code", nil)
	}
	room, err := s.rooms.FindByJoinCode(ctx, in.JoinCode)
	if err != nil {
		return nil, notFoundOr(err, "No room found with this join code", nil)
	}
	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, notFoundOr(err, "User not found", map[string]string{"userId": in.UserID})
	}
	if room.IsPublic {
		return nil, BadRequest(CodeRoomTypeMismatch, "This room is public, join it by id instead")
	}
	return s.join(ctx, room, user)
}

func (s *MemberService) join(ctx context.Context, room *models.Room, user *models.User) (*JoinResult, error) {
	if _, err := s.members.FindByRoomAndUser(ctx, room.ID, user.ID); err == nil {
		return nil, alreadyMember()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, Internal(err)
	}

	now := s.now()
	if room.Expired(now, s.lifetime) {
		return nil, NotFound("Room has expired", map[string]string{"roomId": room.ID})
	}

	member := &models.RoomMember{
		ID:       uuid.NewString(),
		RoomID:   room.ID,
		UserID:   user.ID,
		JoinedAt: now,
		IsHost:   false,
	}

	var err error
	if s.enforceLimit {
		err = s.members.CreateWithinLimit(ctx, member, room.Limit)
	} else {
		err = s.members.Create(ctx, member)
	}
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrCapacityReached):
		return nil, Conflict(CodeRoomFull, "This room is full")
	case repository.IsConstraint(err, repository.ConstraintMembership):
		return nil, alreadyMember()
	case errors.Is(err, repository.ErrNotFound):
		return nil, NotFound("Room not found", map[string]string{"roomId": room.ID})
	case errors.Is(err, repository.ErrForeignKey):
		return nil, Conflict(CodeForeignKey, "Room or user no longer exists")
	default:
		return nil, Internal(err)
	}

	metrics.MembersJoinedTotal.WithLabelValues(metrics.Visibility(room.IsPublic)).Inc()
	s.log.Info().Str("room_id", room.ID).Str("user_id", user.ID).Msg("member joined")

	s.notifier.Publish(room.ID, EventMemberJoined, models.MemberView{
		RoomMember: *member,
		UserName:   user.Name,
		UserEmail:  user.Email,
		UserImage:  user.Image,
	})
	return &JoinResult{Room: *room, Member: *member}, nil
}

func (s *MemberService) LeaveRoom(ctx context.Context, roomID, userID string) error {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return notFoundOr(err, "Room not found", map[string]string{"roomId": roomID})
	}
	member, err := s.members.FindByRoomAndUser(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotMember()
		}
		return Internal(err)
	}
	if member.IsHost || room.CreatedBy == userID {
		return Forbidden(CodeHostCannotLeave, "The host cannot leave the room, delete it instead")
	}

	if err := s.members.Delete(ctx, member.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotMember()
		}
		return Internal(err)
	}

	s.log.Info().Str("room_id", roomID).Str("user_id", userID).Msg("member left")
	s.notifier.Publish(roomID, EventMemberLeft, MembershipEvent{RoomID: roomID, MemberID: member.ID, UserID: userID})
	return nil
}

// RemoveMember lets the room creator or the host member remove someone else.
func (s *MemberService) RemoveMember(ctx context.Context, roomID, memberID, callerID string) error {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return notFoundOr(err, "Room not found", map[string]string{"roomId": roomID})
	}

	allowed := room.CreatedBy == callerID
	if !allowed {
		caller, err := s.members.FindByRoomAndUser(ctx, roomID, callerID)
		switch {
		case err == nil:
			allowed = caller.IsHost
		case !errors.Is(err, repository.ErrNotFound):
			return Internal(err)
		}
	}
	if !allowed {
		return Forbidden(CodeUnauthorized, "Only the room host can remove members")
	}

	target, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return notFoundOr(err, "Member not found", map[string]string{"memberId": memberID})
	}
	if target.RoomID != roomID {
		return NotFound("Member not found", map[string]string{"memberId": memberID})
	}
	if target.UserID == room.CreatedBy {
		return Forbidden(CodeCannotRemoveCreator, "The room creator cannot be removed")
	}

	if err := s.members.Delete(ctx, target.ID); err != nil {
		return notFoundOr(err, "Member not found", map[string]string{"memberId": memberID})
	}

	s.log.Info().Str("room_id", roomID).Str("member_id", memberID).Str("by", callerID).Msg("member removed")
	s.notifier.Publish(roomID, EventMemberRemoved, MembershipEvent{RoomID: roomID, MemberID: target.ID, UserID: target.UserID})
	s.notifier.DisconnectUser(roomID, target.UserID)
	return nil
}

func (s *MemberService) GetRoomMembers(ctx context.Context, roomID string) ([]models.MemberView, error) {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, notFoundOr(err, "Room not found", map[string]string{"roomId": roomID})
	}
	members, err := s.members.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, Internal(err)
	}
	return members, nil
}

func (s *MemberService) GetUserRooms(ctx context.Context, userID string) ([]models.UserRoomView, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, "User not found", map[string]string{"userId": userID})
	}
	rooms, err := s.members.ListByUser(ctx, userID)
	if err != nil {
		return nil, Internal(err)
	}
	return rooms, nil
}

func (s *MemberService) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	_, err := s.members.FindByRoomAndUser(ctx, roomID, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, Internal(err)
}

func alreadyMember() *AppError {
	return Conflict(CodeAlreadyMember, "User is already a member of this room")
}

func NotMember() *AppError {
	return &AppError{Status: http.StatusNotFound, Code: CodeNotMember, Message: "User is not a member of this room"}
}
