package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"truthordare/middleware"
	"truthordare/services"
)

// respondError writes the error envelope. Causes of 5xx responses are logged
// and never sent to the client.
func respondError(c *gin.Context, err error) {
	appErr := services.AsAppError(err)
	if appErr.Status >= 500 {
		log.Error().
			Err(appErr.Err).
			Str("code", appErr.Code).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		_ = c.Error(err)
	}

	body := gin.H{"error": appErr.Message, "code": appErr.Code}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	c.AbortWithStatusJSON(appErr.Status, body)
}

// bindJSON decodes the body into dst. Validation happens in the services.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = services.ErrEmptyBody
		}
		respondError(c, services.ValidationFromError(err))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, services.ValidationFromError(err))
		return false
	}
	return true
}

// actingUser returns the signed in user. Bodies may still name the user as
// older clients do; a name that differs from the session is rejected.
func actingUser(c *gin.Context, field, claimed string) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		respondError(c, services.Unauthorized("Authentication required"))
		return "", false
	}
	if claimed != "" && claimed != userID {
		respondError(c, services.Forbidden(services.CodeUnauthorized, fmt.Sprintf("%s does not match the signed in user", field)))
		return "", false
	}
	return userID, true
}

// queryInt reads an optional positive integer query parameter.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		respondError(c, services.Validation([]services.FieldError{{Field: name, Message: "must be a positive integer"}}))
		return 0, false
	}
	return n, true
}

// queryBool reads an optional boolean query parameter; nil means absent.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		respondError(c, services.Validation([]services.FieldError{{Field: name, Message: "must be true or false"}}))
		return nil, false
	}
	return &b, true
}
