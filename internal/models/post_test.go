package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStatusSetsPublishedAtOnce(t *testing.T) {
	first := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	p := &Post{Status: PostDraft}

	p.ApplyStatus(PostPublished, first)
	require.NotNil(t, p.PublishedAt)
	assert.Equal(t, first, *p.PublishedAt)
	assert.True(t, p.IsPublished())

	p.ApplyStatus(PostDraft, first.Add(time.Hour))
	assert.Equal(t, PostDraft, p.Status)

	p.ApplyStatus(PostPublished, first.Add(2*time.Hour))
	assert.Equal(t, first, *p.PublishedAt)
}

func TestApplyStatusKeepsScheduledPostDraft(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	later := now.Add(24 * time.Hour)
	p := &Post{PublishAt: &later}

	p.ApplyStatus(PostPublished, now)

	assert.Equal(t, PostDraft, p.Status)
	assert.Nil(t, p.PublishedAt)
}

func TestProfileCompletion(t *testing.T) {
	u := &User{}
	pct, missing := u.ProfileCompletion()
	assert.Equal(t, 0, pct)
	assert.Len(t, missing, 4)

	u.Bio = "writes about Go"
	u.EmailVerified = true
	pct, missing = u.ProfileCompletion()
	assert.Equal(t, 50, pct)
	assert.ElementsMatch(t, []string{"avatar", "social_links"}, missing)
}
