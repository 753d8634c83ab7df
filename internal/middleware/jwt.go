package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codezero/photomap/internal/auth"
	"github.com/codezero/photomap/pkg/response"
)

const (
	// ContextMemberID is the key for member ID in gin context.
	ContextMemberID = "member_id"
	// ContextMemberEmail is the key for member email in gin context.
	ContextMemberEmail = "member_email"
)

// AccessValidator validates bearer access tokens.
type AccessValidator interface {
	ValidateAccess(token string) (*auth.Claims, error)
}

// JWT returns a middleware that validates the bearer token and sets member claims in context.
func JWT(validator AccessValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := validator.ValidateAccess(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextMemberID, claims.MemberID)
		c.Set(ContextMemberEmail, claims.Email)
		c.Next()
	}
}

// MemberID returns the authenticated member. Only valid behind JWT.
func MemberID(c *gin.Context) uuid.UUID {
	return c.MustGet(ContextMemberID).(uuid.UUID)
}
