package repositories

import (
	"context"
	"testing"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := NewPostgresUserRepository(db)

	require.NoError(t, users.CreateUser(ctx, &models.User{Username: "one", Email: "same@example.com"}))
	err := users.CreateUser(ctx, &models.User{Username: "two", Email: "same@example.com"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	got, err := users.GetUserByEmail(ctx, "SAME@example.com")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Username)
}

func TestUpdateRole(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "writer", models.RoleAuthor)
	users := NewPostgresUserRepository(db)

	require.NoError(t, users.UpdateRole(ctx, u.ID, models.RoleEditor))
	got, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, got.Role)

	assert.ErrorIs(t, users.UpdateRole(ctx, 999, models.RoleAdmin), gorm.ErrRecordNotFound)
}

func TestDeleteUserCascade(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := NewPostgresUserRepository(db)
	follows := NewPostgresFollowRepository(db)
	comments := NewPostgresCommentRepository(db)

	gone := testutil.CreateUser(t, db, "gone", models.RoleAuthor)
	stays := testutil.CreateUser(t, db, "stays", models.RoleAuthor)
	own := testutil.CreatePost(t, db, gone, "mine")
	theirs := testutil.CreatePost(t, db, stays, "theirs")

	_, err := NewPostgresReactionRepository(db).Toggle(ctx, gone.ID, theirs.ID, models.ReactionLike)
	require.NoError(t, err)
	parent := &models.Comment{PostID: theirs.ID, UserID: gone.ID, Content: "first"}
	require.NoError(t, comments.CreateComment(ctx, parent))
	reply := &models.Comment{PostID: theirs.ID, UserID: stays.ID, ParentID: &parent.ID, Content: "reply"}
	require.NoError(t, comments.CreateComment(ctx, reply))
	_, err = follows.Follow(ctx, stays.ID, gone.ID)
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser(ctx, gone.ID))

	_, err = users.GetUserByID(ctx, gone.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = NewPostgresPostRepository(db).GetPostByID(ctx, own.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := NewPostgresPostRepository(db).GetPostByID(ctx, theirs.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.ReactionCount)
	assert.EqualValues(t, 0, got.CommentCount)

	left, err := comments.GetCommentsByPostID(ctx, theirs.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	survivor, err := users.GetUserByID(ctx, stays.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, survivor.FollowingCount)
}

func TestFollowCounters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice", models.RoleAuthor)
	b := testutil.CreateUser(t, db, "bob", models.RoleAuthor)
	follows := NewPostgresFollowRepository(db)
	users := NewPostgresUserRepository(db)

	created, err := follows.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = follows.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)

	ok, err := follows.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := follows.GetFollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, ids)

	followers, err := follows.GetFollowers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, a.ID, followers[0].ID)

	gotA, _ := users.GetUserByID(ctx, a.ID)
	gotB, _ := users.GetUserByID(ctx, b.ID)
	assert.EqualValues(t, 1, gotA.FollowingCount)
	assert.EqualValues(t, 1, gotB.FollowersCount)

	removed, err := follows.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = follows.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	gotB, _ = users.GetUserByID(ctx, b.ID)
	assert.EqualValues(t, 0, gotB.FollowersCount)
}
