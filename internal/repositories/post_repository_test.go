package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestListPublishedFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author", models.RoleAuthor)
	posts := NewPostgresPostRepository(db)
	cats := NewPostgresCategoryRepository(db)

	golang := &models.Category{Name: "Go", Slug: "go"}
	require.NoError(t, cats.CreateCategory(ctx, golang))
	tags, err := cats.EnsureTags(ctx, []string{"Channels", "concurrency"})
	require.NoError(t, err)

	now := time.Now().UTC()
	tagged := &models.Post{AuthorID: author.ID, Title: "Channels in depth", Content: "select", CategoryID: &golang.ID, Tags: tags}
	tagged.ApplyStatus(models.PostPublished, now)
	require.NoError(t, posts.CreatePost(ctx, tagged))

	plain := &models.Post{AuthorID: author.ID, Title: "Gardening", Content: "Tomatoes"}
	plain.ApplyStatus(models.PostPublished, now)
	require.NoError(t, posts.CreatePost(ctx, plain))

	draft := &models.Post{AuthorID: author.ID, Title: "Channels draft", Content: "wip"}
	draft.ApplyStatus(models.PostDraft, now)
	require.NoError(t, posts.CreatePost(ctx, draft))

	tests := []struct {
		name   string
		filter models.PostFilter
		want   []uint
	}{
		{"all published", models.PostFilter{}, []uint{plain.ID, tagged.ID}},
		{"search is case insensitive", models.PostFilter{Search: "CHANNELS"}, []uint{tagged.ID}},
		{"search matches content", models.PostFilter{Search: "tomato"}, []uint{plain.ID}},
		{"category slug", models.PostFilter{Category: "go"}, []uint{tagged.ID}},
		{"tag", models.PostFilter{Tag: "channels"}, []uint{tagged.ID}},
		{"unknown tag", models.PostFilter{Tag: "rust"}, []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := posts.ListPublished(ctx, tt.filter, 1, 10)
			require.NoError(t, err)
			ids := make([]uint, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
			assert.EqualValues(t, len(tt.want), total)
		})
	}
}

func TestPublishDue(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author", models.RoleAuthor)
	posts := NewPostgresPostRepository(db)

	now := time.Now().UTC()
	past, future := now.Add(-time.Minute), now.Add(time.Hour)

	due := &models.Post{AuthorID: author.ID, Title: "due", PublishAt: &past}
	due.ApplyStatus(models.PostDraft, now)
	require.NoError(t, posts.CreatePost(ctx, due))

	later := &models.Post{AuthorID: author.ID, Title: "later", PublishAt: &future}
	later.ApplyStatus(models.PostPublished, now)
	require.NoError(t, posts.CreatePost(ctx, later))
	assert.Equal(t, models.PostDraft, later.Status)

	n, err := posts.PublishDue(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := posts.GetPostByID(ctx, due.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished())
	assert.NotNil(t, got.PublishedAt)

	got, err = posts.GetPostByID(ctx, later.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished())
}

func TestUpdatePostReplacesTags(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author", models.RoleAuthor)
	posts := NewPostgresPostRepository(db)
	cats := NewPostgresCategoryRepository(db)

	first, err := cats.EnsureTags(ctx, []string{"a", "b"})
	require.NoError(t, err)
	p := &models.Post{AuthorID: author.ID, Title: "t", Tags: first}
	require.NoError(t, posts.CreatePost(ctx, p))

	second, err := cats.EnsureTags(ctx, []string{"c"})
	require.NoError(t, err)
	p.Title = "renamed"
	p.Tags = second
	require.NoError(t, posts.UpdatePost(ctx, p))

	got, err := posts.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "c", got.Tags[0].Name)
}

func TestDeletePostCascades(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author", models.RoleAuthor)
	reader := testutil.CreateUser(t, db, "reader", models.RoleAuthor)
	post := testutil.CreatePost(t, db, author, "doomed")
	posts := NewPostgresPostRepository(db)

	require.NoError(t, NewPostgresCommentRepository(db).CreateComment(ctx, &models.Comment{PostID: post.ID, UserID: reader.ID, Content: "x"}))
	_, err := NewPostgresReactionRepository(db).Toggle(ctx, reader.ID, post.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = NewPostgresBookmarkRepository(db).Toggle(ctx, reader.ID, post.ID)
	require.NoError(t, err)

	require.NoError(t, posts.DeletePost(ctx, post.ID))
	assert.ErrorIs(t, posts.DeletePost(ctx, post.ID), gorm.ErrRecordNotFound)

	for _, m := range []interface{}{&models.Comment{}, &models.Reaction{}, &models.Bookmark{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T left behind", m)
	}
}

func TestFlagCountsOncePerUser(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author", models.RoleAuthor)
	a := testutil.CreateUser(t, db, "alice", models.RoleAuthor)
	b := testutil.CreateUser(t, db, "bob", models.RoleAuthor)
	post := testutil.CreatePost(t, db, author, "spam")
	posts := NewPostgresPostRepository(db)

	created, err := posts.Flag(ctx, &models.PostFlag{PostID: post.ID, UserID: a.ID})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = posts.Flag(ctx, &models.PostFlag{PostID: post.ID, UserID: a.ID})
	require.NoError(t, err)
	assert.False(t, created)
	_, err = posts.Flag(ctx, &models.PostFlag{PostID: post.ID, UserID: b.ID})
	require.NoError(t, err)

	flagged, err := posts.ListFlagged(ctx, 10)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.EqualValues(t, 2, flagged[0].Flags)
	assert.Equal(t, post.ID, flagged[0].ID)
}

func TestUpdatePostKeepsConcurrentCounters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author", models.RoleAuthor)
	reader := testutil.CreateUser(t, db, "reader", models.RoleAuthor)
	posts := NewPostgresPostRepository(db)
	post := testutil.CreatePost(t, db, author, "counted")

	loaded, err := posts.GetPostByID(ctx, post.ID)
	require.NoError(t, err)

	_, err = NewPostgresReactionRepository(db).Toggle(ctx, reader.ID, post.ID, models.ReactionLike)
	require.NoError(t, err)
	require.NoError(t, NewPostgresCommentRepository(db).CreateComment(ctx, &models.Comment{PostID: post.ID, UserID: reader.ID, Content: "nice"}))
	require.NoError(t, posts.IncrementViews(ctx, post.ID))

	loaded.Title = "edited"
	require.NoError(t, posts.UpdatePost(ctx, loaded))

	got, err := posts.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
	assert.EqualValues(t, 1, got.ReactionCount)
	assert.EqualValues(t, 1, got.CommentCount)
	assert.EqualValues(t, 1, got.Views)
}

func TestUpdatePostMissing(t *testing.T) {
	db := testutil.NewDB(t)
	err := NewPostgresPostRepository(db).UpdatePost(context.Background(), &models.Post{ID: 404, Title: "gone"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
