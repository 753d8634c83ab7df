package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codezero/photomap/pkg/apperrors"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err})
}

// TooManyRequests sends 429.
func TooManyRequests(c *gin.Context, err string) {
	c.JSON(http.StatusTooManyRequests, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// Error translates a service error into the matching status and envelope.
// Unclassified and internal errors are reported without their cause.
func Error(c *gin.Context, err error) {
	msg := apperrors.Message(err)
	switch {
	case errors.Is(err, apperrors.ErrInternal):
		Internal(c, "internal server error")
	case errors.Is(err, apperrors.ErrNotFound):
		NotFound(c, msg)
	case errors.Is(err, apperrors.ErrForbidden):
		Forbidden(c, msg)
	case errors.Is(err, apperrors.ErrUnauthorized):
		Unauthorized(c, msg)
	case errors.Is(err, apperrors.ErrDuplicate):
		Conflict(c, msg)
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrIllegalState):
		BadRequest(c, msg)
	default:
		Internal(c, "internal server error")
	}
	_ = c.Error(err)
}
