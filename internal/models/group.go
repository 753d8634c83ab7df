package models

import (
	"github.com/google/uuid"
)

// GroupRole is a member's role within one group.
type GroupRole string

const (
	GroupRoleOwner  GroupRole = "OWNER"
	GroupRoleMember GroupRole = "MEMBER"
)

// MemberGroup is a named collection of members. Each member owns exactly one personal group.
type MemberGroup struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	OwnerID    uuid.UUID `json:"ownerId"`
	IsPersonal bool      `json:"isPersonal"`
	Audit
}

// GroupMapping links a member to a group with a role. Back-references are queried, never stored.
type GroupMapping struct {
	ID       uuid.UUID `json:"id"`
	GroupID  uuid.UUID `json:"groupId"`
	MemberID uuid.UUID `json:"memberId"`
	Role     GroupRole `json:"role"`
	Audit
}

// GroupMember is one row of a group's member list.
type GroupMember struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  GroupRole `json:"role"`
}

// GroupResponse is a group with its active members.
type GroupResponse struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	OwnerID    uuid.UUID     `json:"ownerId"`
	IsPersonal bool          `json:"isPersonal"`
	Members    []GroupMember `json:"members"`
}

// NewGroupResponse assembles the response for g.
func NewGroupResponse(g *MemberGroup, members []GroupMember) GroupResponse {
	if members == nil {
		members = []GroupMember{}
	}
	return GroupResponse{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID, IsPersonal: g.IsPersonal, Members: members}
}
