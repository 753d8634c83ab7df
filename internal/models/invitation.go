package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InvitationValidity is how long an invitation token can be redeemed.
const InvitationValidity = 24 * time.Hour

// InvitationState is derived from the stored row and the clock; it is not persisted.
type InvitationState string

const (
	InvitationIssued   InvitationState = "ISSUED"
	InvitationRedeemed InvitationState = "REDEEMED"
	InvitationExpired  InvitationState = "EXPIRED"
)

var (
	ErrInvitationUsed    = errors.New("invitation already used")
	ErrInvitationExpired = errors.New("invitation expired")
)

// GroupInvitation binds an email address to a group through a single-use token.
type GroupInvitation struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	GroupID   uuid.UUID `json:"groupId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"used"`
	Audit
}

// NewGroupInvitation issues a fresh token valid for InvitationValidity from now.
func NewGroupInvitation(email string, groupID uuid.UUID, now time.Time) *GroupInvitation {
	return &GroupInvitation{
		Token:     uuid.NewString(),
		Email:     email,
		GroupID:   groupID,
		ExpiresAt: now.Add(InvitationValidity),
	}
}

// IsExpired reports whether now is past the expiry.
func (i *GroupInvitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// State returns the lifecycle state at now. Redeemed wins over expired.
func (i *GroupInvitation) State(now time.Time) InvitationState {
	switch {
	case i.Used:
		return InvitationRedeemed
	case i.IsExpired(now):
		return InvitationExpired
	default:
		return InvitationIssued
	}
}

// CheckRedeemable returns nil only in the Issued state.
func (i *GroupInvitation) CheckRedeemable(now time.Time) error {
	switch i.State(now) {
	case InvitationRedeemed:
		return ErrInvitationUsed
	case InvitationExpired:
		return ErrInvitationExpired
	}
	return nil
}

// InvitationPreview is what an unauthenticated visitor sees for a token.
type InvitationPreview struct {
	GroupID   uuid.UUID `json:"groupId"`
	GroupName string    `json:"groupName"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"used"`
	Expired   bool      `json:"expired"`
}
