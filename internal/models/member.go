package models

import (
	"github.com/google/uuid"
)

// MemberRole is the platform-wide role of a member.
type MemberRole string

const (
	MemberRoleUser MemberRole = "USER"
)

// Member is a registered account. Social members log in only through Kakao.
type Member struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Role         MemberRole `json:"role"`
	Social       bool       `json:"social"`
	Audit
}

// MemberResponse is Member without credentials for API responses.
type MemberResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// ToResponse converts Member to MemberResponse.
func (m *Member) ToResponse() MemberResponse {
	return MemberResponse{ID: m.ID, Email: m.Email, Name: m.Name}
}

// PersonalGroupName is the name of the group created for a member at registration.
func PersonalGroupName(memberName string) string {
	return memberName + "'s own group"
}
