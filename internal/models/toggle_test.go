package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextToggle(t *testing.T) {
	tests := []struct {
		name      string
		exists    bool
		current   string
		requested string
		want      ToggleOutcome
	}{
		{"absent row is added", false, "", "like", ToggleAdded},
		{"same kind is removed", true, "like", "like", ToggleRemoved},
		{"other kind is updated", true, "like", "love", ToggleUpdated},
		{"bookmark present is removed", true, "", "", ToggleRemoved},
		{"bookmark absent is added", false, "", "", ToggleAdded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextToggle(tt.exists, tt.current, tt.requested))
		})
	}
}

func TestToggleOutcomeNotifies(t *testing.T) {
	assert.True(t, ToggleAdded.Notifies())
	assert.True(t, ToggleUpdated.Notifies())
	assert.False(t, ToggleRemoved.Notifies())
}

func TestParseReactionKind(t *testing.T) {
	for _, k := range ReactionKinds {
		got, ok := ParseReactionKind(string(k))
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}

	_, ok := ParseReactionKind("dislike")
	assert.False(t, ok)
	_, ok = ParseReactionKind("")
	assert.False(t, ok)
}

func TestNotificationMarkRead(t *testing.T) {
	n := &Notification{}
	assert.True(t, n.MarkRead())
	assert.True(t, n.IsRead)
	assert.False(t, n.MarkRead())
	assert.True(t, n.IsRead)
}
