package locations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codezero/photomap/internal/middleware"
	"github.com/codezero/photomap/internal/models"
	"github.com/codezero/photomap/pkg/response"
)

// CreateRequest is the body for POST /locations/groups/:groupId.
// Coordinates are pointers so that 0 is accepted.
type CreateRequest struct {
	Name      string   `json:"name" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// UpdateRequest is the body for PATCH /locations/:id.
type UpdateRequest struct {
	Name      *string  `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Handler handles location HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a location handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func parseID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

func toResponses(list []models.Location) []models.LocationResponse {
	out := make([]models.LocationResponse, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToResponse())
	}
	return out
}

// Create handles POST /locations/groups/:groupId.
func (h *Handler) Create(c *gin.Context) {
	groupID, ok := parseID(c, "groupId", "group id")
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l, err := h.svc.Create(c.Request.Context(), middleware.MemberID(c), groupID, req.Name, *req.Latitude, *req.Longitude)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, l.ToResponse())
}

// ListMine handles GET /locations.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.ListByMember(c.Request.Context(), middleware.MemberID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponses(list))
}

// ListByGroup handles GET /locations/groups/:groupId.
func (h *Handler) ListByGroup(c *gin.Context) {
	groupID, ok := parseID(c, "groupId", "group id")
	if !ok {
		return
	}
	list, err := h.svc.ListByGroup(c.Request.Context(), middleware.MemberID(c), groupID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponses(list))
}

// Get handles GET /locations/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "location id")
	if !ok {
		return
	}
	l, err := h.svc.Get(c.Request.Context(), middleware.MemberID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, l.ToResponse())
}

// Update handles PATCH /locations/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "location id")
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l, err := h.svc.Update(c.Request.Context(), middleware.MemberID(c), id, UpdateInput(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, l.ToResponse())
}

// Delete handles DELETE /locations/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "location id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.MemberID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "location deleted"})
}
