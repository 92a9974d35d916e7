package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"truthordare/middleware"
	"truthordare/services"
)

// WSHandler upgrades members of a room to its event stream.
type WSHandler struct {
	memberService *services.MemberService
	hub           *services.Hub
	upgrader      websocket.Upgrader
}

func NewWSHandler(memberService *services.MemberService, hub *services.Hub, originAllowed func(string) bool) *WSHandler {
	return &WSHandler{
		memberService: memberService,
		hub:           hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(origin)
			},
		},
	}
}

func (h *WSHandler) ServeRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	userID := middleware.UserID(c)

	isMember, err := h.memberService.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !isMember {
		respondError(c, services.NotMember())
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Warn().Err(err).Str("room_id", roomID).Str("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	log.Debug().Str("room_id", roomID).Str("user_id", userID).Msg("websocket connected")
	h.hub.Attach(conn, roomID, userID)
}
