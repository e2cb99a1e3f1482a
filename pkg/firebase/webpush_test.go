package firebase

import (
	"context"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMulticast struct {
	got  *messaging.MulticastMessage
	resp *messaging.BatchResponse
	err  error
}

func (f *fakeMulticast) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.got = m
	return f.resp, f.err
}

func TestPushBuildsMulticast(t *testing.T) {
	f := &fakeMulticast{resp: &messaging.BatchResponse{SuccessCount: 2}}
	p := NewWebPusher(f)

	err := p.Push(context.Background(), []string{"a", "b"}, "Inkwell", "hello", map[string]string{"kind": "follow"})
	require.NoError(t, err)
	require.NotNil(t, f.got)
	assert.Equal(t, []string{"a", "b"}, f.got.Tokens)
	assert.Equal(t, "hello", f.got.Notification.Body)
	assert.Equal(t, "follow", f.got.Data["kind"])
}

func TestPushSkipsWithoutTokens(t *testing.T) {
	f := &fakeMulticast{}
	require.NoError(t, NewWebPusher(f).Push(context.Background(), nil, "t", "b", nil))
	assert.Nil(t, f.got)
}

func TestPushPartialFailureIsNotAnError(t *testing.T) {
	f := &fakeMulticast{resp: &messaging.BatchResponse{
		SuccessCount: 1,
		FailureCount: 1,
		Responses:    []*messaging.SendResponse{{Success: true}, {Error: errors.New("boom")}},
	}}
	assert.NoError(t, NewWebPusher(f).Push(context.Background(), []string{"a", "b"}, "t", "b", nil))
}

func TestPushRequestFailure(t *testing.T) {
	f := &fakeMulticast{err: errors.New("network")}
	assert.Error(t, NewWebPusher(f).Push(context.Background(), []string{"a"}, "t", "b", nil))
}
