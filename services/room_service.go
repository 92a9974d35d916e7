package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"truthordare/logger"
	"truthordare/metrics"
	"truthordare/models"
	"truthordare/repository"
)

// DefaultRoomLifetime is how long a room stays joinable after creation.
const DefaultRoomLifetime = 15 * time.Minute

type RoomService struct {
	rooms      repository.RoomRepository
	members    repository.MemberRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	codes      *JoinCodeAllocator
	notifier   RoomNotifier
	lifetime   time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewRoomService(
	rooms repository.RoomRepository,
	members repository.MemberRepository,
	categories repository.CategoryRepository,
	users repository.UserRepository,
	notifier RoomNotifier,
	lifetime time.Duration,
) *RoomService {
	if lifetime <= 0 {
		lifetime = DefaultRoomLifetime
	}
	return &RoomService{
		rooms:      rooms,
		members:    members,
		categories: categories,
		users:      users,
		codes:      NewJoinCodeAllocator(rooms),
		notifier:   notifierOrNoop(notifier),
		lifetime:   lifetime,
		now:        time.Now,
		log:        logger.Component("rooms"),
	}
}

type CreateRoomInput struct {
	Name         string `json:"name" validate:"required,min=3,max=15"`
	IsPublic     *bool  `json:"isPublic"`
	Limit        *int   `json:"limit" validate:"omitempty,min=2,max=8"`
	CategorySlug string `json:"categorySlug" validate:"required,notblank"`
	CreatedBy    string `json:"createdBy" validate:"required"`
}

type UpdateRoomInput struct {
	Name         *string `json:"name" validate:"omitempty,min=3,max=15"`
	IsPublic     *bool   `json:"isPublic"`
	Limit        *int    `json:"limit" validate:"omitempty,min=2,max=8"`
	CategorySlug *string `json:"categorySlug" validate:"omitempty,notblank"`
}

// RoomListQuery holds the raw filters of a room listing.
type RoomListQuery struct {
	Page         int
	Limit        int
	CategorySlug string
	IsPublic     *bool
}

type CreateRoomResult struct {
	Room     models.RoomView `json:"room"`
	JoinCode *string         `json:"joinCode,omitempty"`
}

func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (*CreateRoomResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CategorySlug = strings.TrimSpace(in.CategorySlug)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	category, err := s.categories.FindBySlug(ctx, in.CategorySlug)
	if err != nil {
		return nil, notFoundOr(err, "Category not found", map[string]string{"categorySlug": in.CategorySlug})
	}
	creator, err := s.users.FindByID(ctx, in.CreatedBy)
	if err != nil {
		return nil, notFoundOr(err, "User not found", map[string]string{"userId": in.CreatedBy})
	}

	name := strings.ToLower(in.Name)
	taken, err := s.rooms.NameExists(ctx, name, category.Slug, "")
	if err != nil {
		return nil, Internal(err)
	}
	if taken {
		return nil, duplicateRoomName()
	}

	now := s.now()
	room := &models.Room{
		ID:           uuid.NewString(),
		Name:         name,
		IsPublic:     true,
		Limit:        models.MinRoomLimit,
		CategorySlug: category.Slug,
		CreatedBy:    creator.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.IsPublic != nil {
		room.IsPublic = *in.IsPublic
	}
	if in.Limit != nil {
		room.Limit = *in.Limit
	}

	insert := func() error {
		host := &models.RoomMember{
			ID:       uuid.NewString(),
			UserID:   creator.ID,
			JoinedAt: now,
			IsHost:   true,
		}
		return s.rooms.CreateWithHost(ctx, room, host)
	}

	if room.IsPublic {
		err = insert()
	} else {
		err = s.codes.AllocateWith(ctx, func(code string) error {
			room.JoinCode = &code
			return insert()
		})
	}
	if err != nil {
		return nil, mapRoomWriteError(err)
	}

	metrics.RoomsCreatedTotal.WithLabelValues(metrics.Visibility(room.IsPublic)).Inc()
	s.log.Info().
		Str("room_id", room.ID).
		Str("name", room.Name).
		Str("category", room.CategorySlug).
		Bool("public", room.IsPublic).
		Msg("room created")

	return &CreateRoomResult{
		Room: models.RoomView{
			Room:          *room,
			CreatorName:   creator.Name,
			CategoryName:  category.Name,
			TotalPlayers:  1,
			TimeRemaining: models.TimeRemaining(room.CreatedAt, now, s.lifetime),
		},
		JoinCode: room.JoinCode,
	}, nil
}

func (s *RoomService) UpdateRoom(ctx context.Context, id, requesterID string, in UpdateRoomInput) (*models.RoomView, error) {
	if trimOptional(in.Name) {
		return nil, blankField("name")
	}
	if trimOptional(in.CategorySlug) {
		return nil, blankField("categorySlug")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Room not found", map[string]string{"roomId": id})
	}
	if room.CreatedBy != requesterID {
		return nil, Forbidden(CodeUnauthorized, "Only the room creator can update this room")
	}

	renamed := false
	if in.CategorySlug != nil {
		slug := *in.CategorySlug
		if slug != room.CategorySlug {
			if _, err := s.categories.FindBySlug(ctx, slug); err != nil {
				return nil, notFoundOr(err, "Category not found", map[string]string{"categorySlug": slug})
			}
			room.CategorySlug = slug
			renamed = true
		}
	}
	if in.Name != nil {
		name := strings.ToLower(*in.Name)
		if name != room.Name {
			room.Name = name
			renamed = true
		}
	}
	if renamed {
		taken, err := s.rooms.NameExists(ctx, room.Name, room.CategorySlug, room.ID)
		if err != nil {
			return nil, Internal(err)
		}
		if taken {
			return nil, duplicateRoomName()
		}
	}
	if in.Limit != nil {
		room.Limit = *in.Limit
	}

	needsCode := false
	if in.IsPublic != nil && *in.IsPublic != room.IsPublic {
		room.IsPublic = *in.IsPublic
		if room.IsPublic {
			room.JoinCode = nil
		} else {
			needsCode = true
		}
	}
	room.UpdatedAt = s.now()

	if needsCode {
		err = s.codes.AllocateWith(ctx, func(code string) error {
			room.JoinCode = &code
			return s.rooms.Update(ctx, room)
		})
	} else {
		err = s.rooms.Update(ctx, room)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Room not found", map[string]string{"roomId": id})
		}
		return nil, mapRoomWriteError(err)
	}

	view, err := s.rooms.FindView(ctx, room.ID)
	if err != nil {
		return nil, notFoundOr(err, "Room not found", map[string]string{"roomId": id})
	}
	s.fillRemaining(view)
	s.notifier.Publish(room.ID, EventRoomUpdated, view)
	return view, nil
}

// GetRoomByID returns the room. The join code is only shown to members.
func (s *RoomService) GetRoomByID(ctx context.Context, id, viewerID string) (*models.RoomView, error) {
	view, err := s.rooms.FindView(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Room not found", map[string]string{"roomId": id})
	}
	s.fillRemaining(view)

	if view.JoinCode != nil && view.CreatedBy != viewerID {
		member := false
		if viewerID != "" {
			member, err = s.isMember(ctx, view.ID, viewerID)
			if err != nil {
				return nil, Internal(err)
			}
		}
		if !member {
			view.JoinCode = nil
		}
	}
	return view, nil
}

// GetAllRooms lists rooms younger than the room lifetime, newest first.
func (s *RoomService) GetAllRooms(ctx context.Context, q RoomListQuery, viewerID string) ([]models.RoomView, Pagination, error) {
	page, limit := normalizePage(q.Page, q.Limit)
	filter := repository.RoomFilter{
		CreatedAfter: s.now().Add(-s.lifetime),
		CategorySlug: strings.TrimSpace(q.CategorySlug),
		IsPublic:     q.IsPublic,
		Offset:       pageOffset(page, limit),
		Limit:        limit,
	}

	views, total, err := s.rooms.ListActive(ctx, filter)
	if err != nil {
		return nil, Pagination{}, Internal(err)
	}
	for i := range views {
		s.fillRemaining(&views[i])
		if views[i].CreatedBy != viewerID {
			views[i].JoinCode = nil
		}
	}
	return views, newPagination(page, limit, total), nil
}

// GetRoomsByUser lists every room the user created, oldest first.
func (s *RoomService) GetRoomsByUser(ctx context.Context, userID string) ([]models.RoomView, error) {
	views, err := s.rooms.ListByCreator(ctx, userID)
	if err != nil {
		return nil, Internal(err)
	}
	for i := range views {
		s.fillRemaining(&views[i])
	}
	return views, nil
}

func (s *RoomService) DeleteRoom(ctx context.Context, id, requesterID string) error {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Room not found", map[string]string{"roomId": id})
	}
	if room.CreatedBy != requesterID {
		return Forbidden(CodeUnauthorized, "Only the room creator can delete this room")
	}

	if err := s.rooms.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Room not found", map[string]string{"roomId": id})
	}

	metrics.RoomsDeletedTotal.WithLabelValues("creator").Inc()
	s.log.Info().Str("room_id", room.ID).Str("name", room.Name).Msg("room deleted by creator")

	s.notifier.Publish(room.ID, EventRoomDeleted, RoomClosedEvent{RoomID: room.ID, Name: room.Name})
	s.notifier.CloseRoom(room.ID)
	return nil
}

func (s *RoomService) isMember(ctx context.Context, roomID, userID string) (bool, error) {
	_, err := s.members.FindByRoomAndUser(ctx, roomID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *RoomService) fillRemaining(view *models.RoomView) {
	view.TimeRemaining = models.TimeRemaining(view.CreatedAt, s.now(), s.lifetime)
}

func duplicateRoomName() *AppError {
	return Conflict(CodeDuplicateRoomName, "A room with this name already exists in this category")
}

// mapRoomWriteError turns constraint failures from room writes into client errors.
func mapRoomWriteError(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case repository.IsConstraint(err, repository.ConstraintRoomName):
		return duplicateRoomName()
	case errors.Is(err, repository.ErrForeignKey):
		return Conflict(CodeForeignKey, "Referenced category or user does not exist")
	case errors.Is(err, repository.ErrCheckViolation):
		return Validation([]FieldError{{Field: repository.ConstraintName(err), Message: "violates a room constraint"}})
	}
	return Internal(err)
}

// notFoundOr maps repository.ErrNotFound to a NOT_FOUND error and anything
// else to an internal error.
func notFoundOr(err error, message string, details interface{}) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound(message, details)
	}
	return Internal(err)
}
