package models

import "time"

// Audit is embedded by every persisted entity.
type Audit struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsDeleted bool      `json:"-"`
}

// Active reports whether the entity is not soft-deleted.
func (a Audit) Active() bool { return !a.IsDeleted }
