package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForConnections(t *testing.T, h *Hub, want int) {
	t.Helper()
	assert.Eventually(t, func() bool { return h.ActiveConnections() == want }, time.Second, 10*time.Millisecond)
}

func TestHubSubscribeAndCleanUp(t *testing.T) {
	h := NewHub()
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	ctx3, cancel3 := context.WithCancel(context.Background())

	// Two devices for user 1, one for user 2.
	_, id1 := h.Subscribe(ctx1, 1)
	_, id2 := h.Subscribe(ctx2, 1)
	h.Subscribe(ctx3, 2)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 3, h.ActiveConnections())

	cancel1()
	waitForConnections(t, h, 2)
	cancel2()
	cancel3()
	waitForConnections(t, h, 0)
	assert.ErrorIs(t, h.Deliver(1, []byte("x")), ErrNoConnection)
}

func TestHubDeliverToEveryConnection(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, _ := h.Subscribe(ctx, 1)
	b, _ := h.Subscribe(ctx, 1)
	other, _ := h.Subscribe(ctx, 2)

	require.NoError(t, h.Deliver(1, []byte("hello")))
	assert.Equal(t, []byte("hello"), <-a)
	assert.Equal(t, []byte("hello"), <-b)
	select {
	case <-other:
		t.Fatal("payload leaked to another user")
	default:
	}
}

func TestHubDeliverNeverBlocks(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := h.Subscribe(ctx, 1)

	for i := 0; i < connectionBuffer+5; i++ {
		require.NoError(t, h.Deliver(1, []byte("x")))
	}
	assert.Len(t, ch, connectionBuffer)
}

func TestHubPublisherIgnoresOfflineUsers(t *testing.T) {
	p := NewHubPublisher(NewHub())
	assert.NoError(t, p.Publish(context.Background(), 42, []byte("x")))
}

func TestParseChannelKey(t *testing.T) {
	id, ok := parseChannelKey(ChannelKey(17))
	assert.True(t, ok)
	assert.EqualValues(t, 17, id)

	for _, bad := range []string{"user_", "user_abc", "post_3", "user_0"} {
		_, ok := parseChannelKey(bad)
		assert.False(t, ok, bad)
	}
}
