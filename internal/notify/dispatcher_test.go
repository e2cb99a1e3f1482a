package notify

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/pkg/mailer"
)

type fakeStore struct {
	mu      sync.Mutex
	created []models.Notification
	err     error
}

func (s *fakeStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	n.ID = uint(len(s.created) + 1)
	n.CreatedAt = time.Now()
	s.created = append(s.created, *n)
	return nil
}

type fakePublisher struct {
	mu    sync.Mutex
	sent  map[uint][][]byte
	err   error
	block chan struct{}
}

func (p *fakePublisher) Publish(_ context.Context, userID uint, payload []byte) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = map[uint][][]byte{}
	}
	p.sent[userID] = append(p.sent[userID], payload)
	return p.err
}

func (p *fakePublisher) count(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent[userID])
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type fakeDirectory map[uint]*models.User

func (d fakeDirectory) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := d[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

type fakePusher struct {
	mu     sync.Mutex
	tokens []string
	data   map[string]string
}

func (p *fakePusher) Push(_ context.Context, tokens []string, _, _ string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, tokens...)
	p.data = data
	return nil
}

type fakeTokens map[uint][]string

func (f fakeTokens) ListTokens(_ context.Context, userID uint) ([]string, error) {
	return f[userID], nil
}

func uintPtr(v uint) *uint { return &v }

func TestNotifySelfIsNoop(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	d := New(store, WithPublisher(pub))

	n, err := d.Notify(context.Background(), Event{RecipientID: 1, SenderID: 1, Kind: models.NotificationReaction})
	d.Wait()

	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, store.created)
	assert.Zero(t, pub.count(1))
}

func TestNotifyFansOut(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	mail := &fakeMailer{}
	push := &fakePusher{}
	d := New(store,
		WithPublisher(pub),
		WithMailer(mail, fakeDirectory{2: {ID: 2, Email: "author@example.com"}}),
		WithWebPush(push, fakeTokens{2: {"tok-1", "tok-2"}}),
	)

	n, err := d.Notify(context.Background(), Event{
		RecipientID: 2,
		SenderID:    1,
		Kind:        models.NotificationReaction,
		PostID:      uintPtr(9),
		Message:     ReactionMessage("alice", models.ReactionLove, "Hello"),
	})
	d.Wait()
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.False(t, n.IsRead)
	assert.Equal(t, "alice reacted (love) to your post 'Hello'", n.Message)

	require.Equal(t, 1, pub.count(2))
	var p Payload
	require.NoError(t, json.Unmarshal(pub.sent[2][0], &p))
	assert.Equal(t, n.ID, p.ID)
	assert.Equal(t, models.NotificationReaction, p.Kind)
	assert.EqualValues(t, 9, *p.PostID)
	assert.EqualValues(t, 1, *p.SenderID)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "author@example.com", mail.sent[0].To)
	assert.Equal(t, n.Message, mail.sent[0].Body)

	assert.Equal(t, []string{"tok-1", "tok-2"}, push.tokens)
	assert.Equal(t, "9", push.data["post_id"])
}

func TestNotifyPersistFailureAborts(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	pub := &fakePublisher{}
	d := New(store, WithPublisher(pub))

	n, err := d.Notify(context.Background(), Event{RecipientID: 2, SenderID: 1, Kind: models.NotificationFollow})
	d.Wait()

	assert.Error(t, err)
	assert.Nil(t, n)
	assert.Zero(t, pub.count(2))
}

func TestNotifyDeliveryFailuresAreSwallowed(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("redis down")}
	mail := &fakeMailer{err: errors.New("smtp down")}
	d := New(store,
		WithPublisher(pub),
		WithMailer(mail, fakeDirectory{}),
	)

	n, err := d.Notify(context.Background(), Event{RecipientID: 2, SenderID: 1, Kind: models.NotificationFollow})
	d.Wait()

	require.NoError(t, err)
	assert.NotNil(t, n)
	assert.Len(t, store.created, 1)
	assert.Empty(t, mail.sent)
}

func TestNotifySystemSender(t *testing.T) {
	store := &fakeStore{}
	d := New(store)

	n, err := d.Notify(context.Background(), Event{RecipientID: 3, Kind: models.NotificationAnnouncement, Message: "maintenance"})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Nil(t, n.SenderID)
}

func TestNotifyDropsBeyondBound(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{block: make(chan struct{})}
	d := New(store, WithPublisher(pub), WithMaxInFlight(1))

	for i := 0; i < 3; i++ {
		_, err := d.Notify(context.Background(), Event{RecipientID: 2, SenderID: 1, Kind: models.NotificationFollow})
		require.NoError(t, err)
	}
	close(pub.block)
	d.Wait()

	assert.Len(t, store.created, 3)
	assert.Equal(t, 1, pub.count(2))
}

func TestNotifyTimeout(t *testing.T) {
	store := &fakeStore{}
	slow := publisherFunc(func(ctx context.Context, _ uint, _ []byte) error {
		<-ctx.Done()
		return ctx.Err()
	})
	d := New(store, WithPublisher(slow), WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := d.Notify(context.Background(), Event{RecipientID: 2, SenderID: 1, Kind: models.NotificationFollow})
	require.NoError(t, err)
	d.Wait()
	assert.Less(t, time.Since(start), time.Second)
}

type publisherFunc func(ctx context.Context, userID uint, payload []byte) error

func (f publisherFunc) Publish(ctx context.Context, userID uint, payload []byte) error {
	return f(ctx, userID, payload)
}
