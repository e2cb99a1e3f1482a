package policy

import (
	"testing"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	owner := Subject{UserID: 1, Role: models.RoleAuthor}
	stranger := Subject{UserID: 2, Role: models.RoleAuthor}
	editor := Subject{UserID: 3, Role: models.RoleEditor}
	admin := Subject{UserID: 4, Role: models.RoleAdmin}
	mine := Resource{OwnerID: 1}

	tests := []struct {
		name    string
		subject Subject
		action  Action
		res     Resource
		want    bool
	}{
		{"owner updates post", owner, PostUpdate, mine, true},
		{"stranger updates post", stranger, PostUpdate, mine, false},
		{"admin cannot edit others' posts", admin, PostUpdate, mine, false},
		{"editor cannot upload media", editor, PostMedia, mine, false},
		{"owner deletes post", owner, PostDelete, mine, true},
		{"admin deletes post", admin, PostDelete, mine, true},
		{"editor cannot delete post", editor, PostDelete, mine, false},
		{"editor views draft", editor, PostViewDraft, mine, true},
		{"stranger views draft", stranger, PostViewDraft, mine, false},
		{"owner deletes comment", owner, CommentDelete, mine, true},
		{"admin cannot delete comment", admin, CommentDelete, mine, false},
		{"recipient reads notification", owner, NotificationRead, mine, true},
		{"other reads notification", stranger, NotificationRead, mine, false},
		{"editor approves", editor, PostApprove, Resource{}, true},
		{"author approves", owner, PostApprove, Resource{}, false},
		{"editor manages categories", editor, CategoryManage, Resource{}, true},
		{"admin dashboard", admin, AdminDashboard, Resource{}, true},
		{"editor dashboard", editor, AdminDashboard, Resource{}, false},
		{"admin announces", admin, AdminAnnounce, Resource{}, true},
		{"unknown action", admin, Action("post:explode"), Resource{}, false},
		{"unknown role", Subject{UserID: 1, Role: "root"}, PostUpdate, mine, false},
		{"ownerless resource", Subject{UserID: 0, Role: models.RoleAuthor}, PostUpdate, Resource{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.subject, tt.action, tt.res))
		})
	}
}
