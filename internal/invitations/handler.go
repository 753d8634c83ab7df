package invitations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codezero/photomap/internal/middleware"
	"github.com/codezero/photomap/pkg/response"
)

// InviteRequest is the body for POST /groups/:id/invite.
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// AcceptRequest is the body for POST /invitations/accept.
type AcceptRequest struct {
	GroupToken string `json:"groupToken" binding:"required"`
}

// InviteResponse answers a successful invite.
type InviteResponse struct {
	Message    string `json:"message"`
	GroupToken string `json:"groupToken"`
}

// Handler handles invitation HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an invitation handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Invite handles POST /groups/:id/invite.
func (h *Handler) Invite(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid group id")
		return
	}
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	token, err := h.svc.Create(c.Request.Context(), req.Email, groupID, middleware.MemberID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, InviteResponse{Message: "invitation sent", GroupToken: token})
}

// Preview handles GET /invitations/accept?groupToken=. No authentication.
func (h *Handler) Preview(c *gin.Context) {
	token := c.Query("groupToken")
	if token == "" {
		response.BadRequest(c, "groupToken is required")
		return
	}
	p, err := h.svc.Preview(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Accept handles POST /invitations/accept.
func (h *Handler) Accept(c *gin.Context) {
	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	g, err := h.svc.Accept(c.Request.Context(), req.GroupToken, middleware.MemberID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, g)
}
