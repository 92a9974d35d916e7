package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"truthordare/middleware"
	"truthordare/services"
)

type RoomHandler struct {
	roomService *services.RoomService
}

func NewRoomHandler(roomService *services.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req services.CreateRoomInput
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actingUser(c, "createdBy", req.CreatedBy)
	if !ok {
		return
	}
	req.CreatedBy = userID

	result, err := h.roomService.CreateRoom(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Room created successfully", "data": result})
}

func (h *RoomHandler) GetAllRooms(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	isPublic, ok := queryBool(c, "isPublic")
	if !ok {
		return
	}

	rooms, pagination, err := h.roomService.GetAllRooms(c.Request.Context(), services.RoomListQuery{
		Page:         page,
		Limit:        limit,
		CategorySlug: c.Query("categorySlug"),
		IsPublic:     isPublic,
	}, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rooms, "pagination": pagination})
}

func (h *RoomHandler) GetRoomByID(c *gin.Context) {
	room, err := h.roomService.GetRoomByID(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (h *RoomHandler) GetRoomsByUser(c *gin.Context) {
	userID, ok := actingUser(c, "userId", c.Param("userId"))
	if !ok {
		return
	}

	rooms, err := h.roomService.GetRoomsByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	var req services.UpdateRoomInput
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actingUser(c, "userId", "")
	if !ok {
		return
	}

	room, err := h.roomService.UpdateRoom(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room updated successfully", "data": room})
}

func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID, ok := actingUser(c, "userId", "")
	if !ok {
		return
	}

	if err := h.roomService.DeleteRoom(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
}
