package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"truthordare/middleware"
	"truthordare/services"
)

type AuthHandler struct {
	authService   *services.AuthService
	secureCookies bool
}

func NewAuthHandler(authService *services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req services.SignUpInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.SignUp(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	c.JSON(http.StatusCreated, result)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req services.SignInInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.authService.SignOut(c.Request.Context(), middleware.SessionID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

func (h *AuthHandler) GetSession(c *gin.Context) {
	info := middleware.Session(c)
	if info == nil {
		respondError(c, services.Unauthorized("Authentication required"))
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.secureCookies, true)
}

func clientMeta(c *gin.Context) services.ClientMeta {
	return services.ClientMeta{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
