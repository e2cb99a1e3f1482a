package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/testutil"
)

type countingPublisher struct {
	calls atomic.Int32
	err   error
}

func (p *countingPublisher) PublishDue(context.Context, time.Time) (int64, error) {
	p.calls.Add(1)
	return 0, p.err
}

func TestRunOncePublishesDueDrafts(t *testing.T) {
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "writer", models.RoleAuthor)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	due := &models.Post{AuthorID: author.ID, Title: "due", Content: "x", Status: models.PostDraft, PublishAt: &past}
	later := &models.Post{AuthorID: author.ID, Title: "later", Content: "x", Status: models.PostDraft, PublishAt: &future}
	require.NoError(t, db.Omit("Author").Create(due).Error)
	require.NoError(t, db.Omit("Author").Create(later).Error)

	s := New(repositories.NewPostgresPostRepository(db), time.Minute)
	s.now = func() time.Time { return now }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var got models.Post
	require.NoError(t, db.First(&got, due.ID).Error)
	assert.Equal(t, models.PostPublished, got.Status)
	require.NotNil(t, got.PublishedAt)

	var pending models.Post
	require.NoError(t, db.First(&pending, later.ID).Error)
	assert.Equal(t, models.PostDraft, pending.Status)
	assert.Nil(t, pending.PublishedAt)

	n, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartTicksUntilStopped(t *testing.T) {
	p := &countingPublisher{err: errors.New("db down")}
	stop := New(p, 5*time.Millisecond).Start()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	stop()
	stop()

	after := p.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, p.calls.Load())
}
