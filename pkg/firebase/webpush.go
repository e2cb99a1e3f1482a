package firebase

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/anonto42/inkwell/backend/pkg/logger"
)

// multicastSender is the part of *messaging.Client used for web push.
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// WebPusher sends notifications to browser registration tokens through FCM.
type WebPusher struct {
	client multicastSender
}

func NewWebPusher(client multicastSender) *WebPusher {
	return &WebPusher{client: client}
}

// Push sends one notification to every token. Per-token failures are logged;
// only a failed request as a whole is returned.
func (p *WebPusher) Push(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{Title: title, Body: body},
		},
	}
	resp, err := p.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return errors.Wrap(err, "fcm multicast")
	}
	if resp.FailureCount > 0 {
		stale := 0
		for _, r := range resp.Responses {
			if r.Error != nil && messaging.IsUnregistered(r.Error) {
				stale++
			}
		}
		logger.Warn("web push partially failed",
			zap.Int("success", resp.SuccessCount),
			zap.Int("failure", resp.FailureCount),
			zap.Int("unregistered", stale))
	}
	return nil
}
