package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v uint) *uint { return &v }

func ids(nodes []*CommentNode) []uint {
	out := make([]uint, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildCommentForestNestsReplies(t *testing.T) {
	comments := []Comment{
		{ID: 1},
		{ID: 2, ParentID: ptr(1)},
		{ID: 3},
		{ID: 4, ParentID: ptr(2)},
		{ID: 5, ParentID: ptr(1)},
	}

	roots := BuildCommentForest(comments, 5)

	require.Equal(t, []uint{1, 3}, ids(roots))
	assert.Equal(t, []uint{2, 5}, ids(roots[0].Replies))
	assert.Equal(t, []uint{4}, ids(roots[0].Replies[0].Replies))
	assert.Equal(t, 2, roots[0].Replies[0].Replies[0].Depth)
	assert.Empty(t, roots[1].Replies)
}

func TestBuildCommentForestFlattensBelowCap(t *testing.T) {
	// 1 -> 2 -> 3 -> {4 -> 6, 5}
	comments := []Comment{
		{ID: 1},
		{ID: 2, ParentID: ptr(1)},
		{ID: 3, ParentID: ptr(2)},
		{ID: 4, ParentID: ptr(3)},
		{ID: 5, ParentID: ptr(3)},
		{ID: 6, ParentID: ptr(4)},
	}

	roots := BuildCommentForest(comments, 1)

	require.Len(t, roots, 1)
	second := roots[0].Replies[0]
	assert.Equal(t, uint(2), second.ID)
	assert.Equal(t, 1, second.Depth)
	assert.Equal(t, []uint{3, 4, 6, 5}, ids(second.Replies))
	for _, r := range second.Replies {
		assert.Equal(t, 2, r.Depth)
		assert.Empty(t, r.Replies)
	}
}

func TestBuildCommentForestOrphansBecomeRoots(t *testing.T) {
	comments := []Comment{
		{ID: 7, ParentID: ptr(99)},
		{ID: 8, ParentID: ptr(8)},
	}

	roots := BuildCommentForest(comments, 3)

	assert.Equal(t, []uint{7, 8}, ids(roots))
}

func TestBuildCommentForestDeepChainIsLinear(t *testing.T) {
	const n = 10000
	comments := make([]Comment, n)
	for i := range comments {
		comments[i].ID = uint(i + 1)
		if i > 0 {
			comments[i].ParentID = ptr(uint(i))
		}
	}

	roots := BuildCommentForest(comments, 6)

	require.Len(t, roots, 1)
	node := roots[0]
	for d := 0; d < 6; d++ {
		require.Len(t, node.Replies, 1)
		node = node.Replies[0]
	}
	assert.Len(t, node.Replies, n-7)
}

func TestBuildCommentForestEmpty(t *testing.T) {
	assert.Empty(t, BuildCommentForest(nil, 3))
}
