package photos

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codezero/photomap/internal/middleware"
	"github.com/codezero/photomap/pkg/response"
	"github.com/codezero/photomap/pkg/storage"
)

// CreateRequest is the body for POST /photos/locations/:locationId.
type CreateRequest struct {
	FileName      string `json:"fileName" binding:"required"`
	FileExtension string `json:"fileExtension" binding:"required"`
}

// ConfirmRequest is the body for POST /photos/:id.
type ConfirmRequest struct {
	UploadStatus *bool `json:"uploadStatus" binding:"required"`
}

// MoveRequest is the body for PATCH /photos/:id.
type MoveRequest struct {
	LocationID string `json:"locationId" binding:"required,uuid"`
}

// Handler handles photo HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a photo handler.
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

// Create handles POST /photos/locations/:locationId.
func (h *Handler) Create(c *gin.Context) {
	locationID, ok := parseID(c, "locationId", "location id")
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := h.svc.Create(c.Request.Context(), middleware.MemberID(c), locationID, req.FileName, req.FileExtension)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// Confirm handles POST /photos/:id.
func (h *Handler) Confirm(c *gin.Context) {
	id, ok := parseID(c, "id", "photo id")
	if !ok {
		return
	}
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := h.svc.ConfirmUpload(c.Request.Context(), middleware.MemberID(c), id, *req.UploadStatus)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// UploadContent handles POST /photos/:id/content with a multipart "file" field.
func (h *Handler) UploadContent(c *gin.Context) {
	id, ok := parseID(c, "id", "photo id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxPhotoFileSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "cannot read file")
		return
	}
	defer f.Close()

	p, err := h.svc.UploadContent(c.Request.Context(), middleware.MemberID(c), id, f, fh.Size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Get handles GET /photos/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "photo id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), middleware.MemberID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// ListMine handles GET /photos.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.MemberID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListByLocation handles GET /photos/locations/:locationId.
func (h *Handler) ListByLocation(c *gin.Context) {
	locationID, ok := parseID(c, "locationId", "location id")
	if !ok {
		return
	}
	list, err := h.svc.ListByLocation(c.Request.Context(), middleware.MemberID(c), locationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Move handles PATCH /photos/:id.
func (h *Handler) Move(c *gin.Context) {
	id, ok := parseID(c, "id", "photo id")
	if !ok {
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := h.svc.UpdateLocation(c.Request.Context(), middleware.MemberID(c), id, uuid.MustParse(req.LocationID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Delete handles PATCH /photos/:id/delete.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "photo id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.MemberID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "photo deleted"})
}
