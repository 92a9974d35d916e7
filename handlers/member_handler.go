package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"truthordare/services"
)

type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

type userBody struct {
	UserID string `json:"userId"`
}

type hostBody struct {
	HostUserID string `json:"hostUserId"`
}

func (h *MemberHandler) JoinPublicRoom(c *gin.Context) {
	var req userBody
	if !bindOptionalJSON(c, &req) {
		return
	}
	userID, ok := actingUser(c, "userId", req.UserID)
	if !ok {
		return
	}

	result, err := h.memberService.JoinPublicRoom(c.Request.Context(), c.Param("roomId"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Successfully joined the room", "data": result})
}

func (h *MemberHandler) JoinPrivateRoom(c *gin.Context) {
	var req services.JoinPrivateRoomInput
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actingUser(c, "userId", req.UserID)
	if !ok {
		return
	}
	req.UserID = userID

	result, err := h.memberService.JoinPrivateRoom(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Successfully joined the private room", "data": result})
}

func (h *MemberHandler) LeaveRoom(c *gin.Context) {
	var req userBody
	if !bindOptionalJSON(c, &req) {
		return
	}
	userID, ok := actingUser(c, "userId", req.UserID)
	if !ok {
		return
	}

	if err := h.memberService.LeaveRoom(c.Request.Context(), c.Param("roomId"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully left the room"})
}

func (h *MemberHandler) RemoveMember(c *gin.Context) {
	var req hostBody
	if !bindOptionalJSON(c, &req) {
		return
	}
	userID, ok := actingUser(c, "hostUserId", req.HostUserID)
	if !ok {
		return
	}

	if err := h.memberService.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("memberId"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

func (h *MemberHandler) GetRoomMembers(c *gin.Context) {
	members, err := h.memberService.GetRoomMembers(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": members})
}

func (h *MemberHandler) GetUserRooms(c *gin.Context) {
	userID, ok := actingUser(c, "userId", c.Param("userId"))
	if !ok {
		return
	}

	rooms, err := h.memberService.GetUserRooms(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}
