package groups

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codezero/photomap/internal/middleware"
	"github.com/codezero/photomap/pkg/response"
)

// GroupRequest is the body for POST /groups and PATCH /groups/:id.
type GroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// Handler handles group HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a group handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func groupID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid group id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /groups.
func (h *Handler) Create(c *gin.Context) {
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	g, err := h.svc.CreateGroup(c.Request.Context(), middleware.MemberID(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, g)
}

// List handles GET /groups.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.ListForMember(c.Request.Context(), middleware.MemberID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /groups/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := groupID(c)
	if !ok {
		return
	}
	g, err := h.svc.Get(c.Request.Context(), id, middleware.MemberID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, g)
}

// Update handles PATCH /groups/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := groupID(c)
	if !ok {
		return
	}
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	g, err := h.svc.Update(c.Request.Context(), id, middleware.MemberID(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, g)
}

// Delete handles PATCH /groups/:id/delete.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := groupID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, middleware.MemberID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "group deleted"})
}

// Member handles PATCH /groups/:id/members/:memberId. The literal "delete" leaves the group;
// any member ID removes that member.
func (h *Handler) Member(c *gin.Context) {
	id, ok := groupID(c)
	if !ok {
		return
	}
	callerID := middleware.MemberID(c)
	if c.Param("memberId") == "delete" {
		if err := h.svc.Leave(c.Request.Context(), id, callerID); err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, gin.H{"message": "left group"})
		return
	}
	targetID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), id, targetID, callerID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "member removed"})
}
