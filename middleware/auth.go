package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"truthordare/services"
)

// Keys under which the authenticated session is stored on the gin context.
const (
	ContextUserID    = "user_id"
	ContextSessionID = "session_id"
	ContextSession   = "session"

	SessionCookie = "session_token"
)

// Authenticator resolves a session token. *services.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.SessionInfo, error)
}

// AuthMiddleware rejects requests without a valid session, taken from the
// Authorization header or the session cookie.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return authenticate(auth, false, false)
}

// WebsocketAuth also accepts ?token= because browsers cannot set headers on
// a websocket handshake.
func WebsocketAuth(auth Authenticator) gin.HandlerFunc {
	return authenticate(auth, true, false)
}

// OptionalAuth attaches the session when one is supplied and valid, and
// lets anonymous requests through.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return authenticate(auth, false, true)
}

func authenticate(auth Authenticator, allowQuery, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, allowQuery)
		if token == "" {
			if optional {
				c.Next()
				return
			}
			abortUnauthorized(c, services.Unauthorized("Authentication required"))
			return
		}

		info, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if optional {
				c.Next()
				return
			}
			abortUnauthorized(c, services.AsAppError(err))
			return
		}

		c.Set(ContextUserID, info.User.ID)
		c.Set(ContextSessionID, info.Session.ID)
		c.Set(ContextSession, info)
		c.Next()
	}
}

func extractToken(c *gin.Context, allowQuery bool) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	if allowQuery {
		return c.Query("token")
	}
	return ""
}

func abortUnauthorized(c *gin.Context, appErr *services.AppError) {
	status := appErr.Status
	if status != http.StatusInternalServerError {
		status = http.StatusUnauthorized
	}
	c.AbortWithStatusJSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionID)
}

// Session returns the resolved session, or nil for anonymous requests.
func Session(c *gin.Context) *services.SessionInfo {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil
	}
	info, _ := v.(*services.SessionInfo)
	return info
}
