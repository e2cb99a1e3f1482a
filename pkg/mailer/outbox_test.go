package mailer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
	gate chan struct{}
}

func (r *recordingSender) Send(ctx context.Context, msg Message) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestOutboxDeliversAndDrains(t *testing.T) {
	s := &recordingSender{}
	o := NewOutbox(s, 10, time.Second)
	stop := o.Start(2)

	for i := 0; i < 5; i++ {
		assert.True(t, o.Enqueue(Message{To: "a@example.com", Subject: "hi"}))
	}
	require.NoError(t, stop(context.Background()))
	assert.Equal(t, 5, s.count())
}

func TestOutboxDropsWhenFull(t *testing.T) {
	s := &recordingSender{gate: make(chan struct{})}
	o := NewOutbox(s, 1, time.Second)

	assert.True(t, o.Enqueue(Message{To: "a@example.com"}))
	assert.False(t, o.Enqueue(Message{To: "b@example.com"}))
	assert.Equal(t, 1, o.QueueLen())

	stop := o.Start(1)
	close(s.gate)
	require.NoError(t, stop(context.Background()))
	assert.Equal(t, 1, s.count())
}

func TestOutboxSurvivesSendErrors(t *testing.T) {
	s := &recordingSender{err: errors.New("smtp down")}
	o := NewOutbox(s, 4, time.Second)
	stop := o.Start(1)

	o.Enqueue(Message{To: "a@example.com"})
	o.Enqueue(Message{To: "b@example.com"})
	require.NoError(t, stop(context.Background()))
	assert.Equal(t, 2, s.count())
}

func TestNopSender(t *testing.T) {
	assert.NoError(t, NopSender{}.Send(context.Background(), Message{To: "a@example.com"}))
}
