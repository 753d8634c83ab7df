// Package authz decides what a group role may do.
package authz

import "github.com/codezero/photomap/internal/models"

// Action is an operation on a group.
type Action string

const (
	ActionViewGroup    Action = "group.view"
	ActionUpdateGroup  Action = "group.update"
	ActionDeleteGroup  Action = "group.delete"
	ActionInvite       Action = "group.invite"
	ActionRemoveMember Action = "group.remove_member"
	ActionLeaveGroup   Action = "group.leave"
)

var policy = map[models.GroupRole]map[Action]bool{
	models.GroupRoleOwner: {
		ActionViewGroup:    true,
		ActionUpdateGroup:  true,
		ActionDeleteGroup:  true,
		ActionInvite:       true,
		ActionRemoveMember: true,
	},
	models.GroupRoleMember: {
		ActionViewGroup:  true,
		ActionLeaveGroup: true,
	},
}

// Allow reports whether role may perform action. Unknown roles and actions are denied.
func Allow(role models.GroupRole, action Action) bool {
	return policy[role][action]
}
