package models

import (
	"github.com/google/uuid"
)

// Photo is an image stored in object storage under FileKey.
// It is visible only once UploadStatus is true.
type Photo struct {
	ID            uuid.UUID `json:"id"`
	MemberID      uuid.UUID `json:"memberId"`
	LocationID    uuid.UUID `json:"locationId"`
	FileName      string    `json:"fileName"`
	FileExtension string    `json:"fileExtension"`
	FileKey       string    `json:"fileKey"`
	UploadStatus  bool      `json:"uploadStatus"`
	Audit
}

// Visible reports whether queries may return the photo.
func (p *Photo) Visible() bool {
	return p.UploadStatus && p.Active()
}

// PhotoResponse carries a freshly signed URL; URLs are never persisted.
type PhotoResponse struct {
	ID            uuid.UUID `json:"id"`
	MemberID      uuid.UUID `json:"memberId"`
	LocationID    uuid.UUID `json:"locationId"`
	FileName      string    `json:"fileName"`
	FileExtension string    `json:"fileExtension"`
	FileKey       string    `json:"fileKey"`
	URL           string    `json:"url"`
	UploadStatus  bool      `json:"uploadStatus"`
}

// ToResponse converts Photo to PhotoResponse with url.
func (p *Photo) ToResponse(url string) PhotoResponse {
	return PhotoResponse{
		ID:            p.ID,
		MemberID:      p.MemberID,
		LocationID:    p.LocationID,
		FileName:      p.FileName,
		FileExtension: p.FileExtension,
		FileKey:       p.FileKey,
		URL:           url,
		UploadStatus:  p.UploadStatus,
	}
}
