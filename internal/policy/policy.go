// Package policy decides who may do what. It has no side effects and no
// dependencies beyond the role type.
package policy

import "github.com/anonto42/inkwell/backend/internal/models"

type Action string

const (
	PostUpdate         Action = "post:update"
	PostMedia          Action = "post:media"
	PostDelete         Action = "post:delete"
	PostViewDraft      Action = "post:view-draft"
	PostApprove        Action = "post:approve"
	CommentUpdate      Action = "comment:update"
	CommentDelete      Action = "comment:delete"
	NotificationRead   Action = "notification:read"
	NotificationDelete Action = "notification:delete"
	CategoryManage     Action = "category:manage"
	AdminDashboard     Action = "admin:dashboard"
	AdminUsers         Action = "admin:users"
	AdminAnnounce      Action = "admin:announce"
	AdminActivity      Action = "admin:activity"
)

// Subject is the acting user.
type Subject struct {
	UserID uint
	Role   models.Role
}

// Resource carries the owner of the object acted on. For notifications the
// owner is the recipient. Zero means the action has no owner.
type Resource struct {
	OwnerID uint
}

type rule struct {
	owner bool
	roles []models.Role
}

var rules = map[Action]rule{
	PostUpdate:         {owner: true},
	PostMedia:          {owner: true},
	CommentUpdate:      {owner: true},
	CommentDelete:      {owner: true},
	NotificationRead:   {owner: true},
	NotificationDelete: {owner: true},
	PostDelete:         {owner: true, roles: []models.Role{models.RoleAdmin}},
	PostViewDraft:      {owner: true, roles: []models.Role{models.RoleEditor, models.RoleAdmin}},
	PostApprove:        {roles: []models.Role{models.RoleEditor, models.RoleAdmin}},
	CategoryManage:     {roles: []models.Role{models.RoleEditor, models.RoleAdmin}},
	AdminDashboard:     {roles: []models.Role{models.RoleAdmin}},
	AdminUsers:         {roles: []models.Role{models.RoleAdmin}},
	AdminAnnounce:      {roles: []models.Role{models.RoleAdmin}},
	AdminActivity:      {roles: []models.Role{models.RoleAdmin}},
}

// Can reports whether the subject may perform the action on the resource.
// Unknown actions and unknown roles are denied.
func Can(s Subject, action Action, r Resource) bool {
	if !s.Role.Valid() || s.UserID == 0 {
		return false
	}
	rl, ok := rules[action]
	if !ok {
		return false
	}
	if rl.owner && r.OwnerID != 0 && r.OwnerID == s.UserID {
		return true
	}
	for _, role := range rl.roles {
		if s.Role == role {
			return true
		}
	}
	return false
}
