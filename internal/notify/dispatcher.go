// Package notify persists notifications and fans them out to the realtime,
// e-mail and web-push channels.
package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/pkg/logger"
	"github.com/anonto42/inkwell/backend/pkg/mailer"
)

// Store persists the inbox record.
type Store interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
}

// Publisher pushes a payload to a user's live connections.
type Publisher interface {
	Publish(ctx context.Context, userID uint, payload []byte) error
}

// WebPusher delivers to browser registration tokens.
type WebPusher interface {
	Push(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// Directory looks up the recipient's e-mail address.
type Directory interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// TokenSource lists a user's registration tokens.
type TokenSource interface {
	ListTokens(ctx context.Context, userID uint) ([]string, error)
}

// Event is one notification to deliver. SenderID zero means the system.
type Event struct {
	RecipientID uint
	SenderID    uint
	Kind        models.NotificationKind
	PostID      *uint
	Message     string
}

// Payload is what live connections receive.
type Payload struct {
	ID        uint                    `json:"id"`
	Kind      models.NotificationKind `json:"kind"`
	Message   string                  `json:"message"`
	PostID    *uint                   `json:"post_id"`
	SenderID  *uint                   `json:"sender_id"`
	CreatedAt time.Time               `json:"created_at"`
}

const (
	defaultTimeout     = 5 * time.Second
	defaultMaxInFlight = 256
	pushTitle          = "Inkwell"
)

// Dispatcher implements the notify operation. Only persistence is
// synchronous; every other channel is best effort.
type Dispatcher struct {
	store     Store
	publisher Publisher
	mail      mailer.Sender
	users     Directory
	pusher    WebPusher
	tokens    TokenSource
	timeout   time.Duration
	slots     chan struct{}
	wg        sync.WaitGroup
}

type Option func(*Dispatcher)

func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

func WithMailer(m mailer.Sender, users Directory) Option {
	return func(d *Dispatcher) { d.mail, d.users = m, users }
}

func WithWebPush(p WebPusher, tokens TokenSource) Option {
	return func(d *Dispatcher) { d.pusher, d.tokens = p, tokens }
}

func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithMaxInFlight bounds concurrent deliveries across all channels.
func WithMaxInFlight(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.slots = make(chan struct{}, n)
		}
	}
}

func New(store Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:   store,
		timeout: defaultTimeout,
		slots:   make(chan struct{}, defaultMaxInFlight),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify persists the notification and starts the deliveries. It returns
// nil, nil when the recipient is the actor. The returned error is always a
// persistence failure; delivery failures are only logged.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) (*models.Notification, error) {
	if ev.RecipientID == 0 || ev.RecipientID == ev.SenderID {
		return nil, nil
	}

	n := &models.Notification{
		RecipientID: ev.RecipientID,
		PostID:      ev.PostID,
		Kind:        ev.Kind,
		Message:     ev.Message,
	}
	if ev.SenderID != 0 {
		sender := ev.SenderID
		n.SenderID = &sender
	}
	if err := d.store.CreateNotification(ctx, n); err != nil {
		return nil, errors.Wrap(err, "persist notification")
	}

	if d.publisher != nil {
		d.spawn("realtime", n, d.pushRealtime)
	}
	if d.mail != nil && d.users != nil {
		d.spawn("email", n, d.sendEmail)
	}
	if d.pusher != nil && d.tokens != nil {
		d.spawn("webpush", n, d.sendWebPush)
	}
	return n, nil
}

func (d *Dispatcher) spawn(channel string, n *models.Notification, fn func(context.Context, *models.Notification) error) {
	select {
	case d.slots <- struct{}{}:
	default:
		logger.Warn("notify: delivery dropped, too many in flight",
			zap.String("channel", channel), zap.Uint("notification", n.ID))
		return
	}

	d.wg.Add(1)
	go func() {
		defer func() {
			<-d.slots
			d.wg.Done()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx, n); err != nil {
			logger.Warn("notify: delivery failed",
				zap.String("channel", channel),
				zap.Uint("notification", n.ID),
				zap.Uint("recipient", n.RecipientID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until every started delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) pushRealtime(ctx context.Context, n *models.Notification) error {
	body, err := json.Marshal(Payload{
		ID:        n.ID,
		Kind:      n.Kind,
		Message:   n.Message,
		PostID:    n.PostID,
		SenderID:  n.SenderID,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return err
	}
	return d.publisher.Publish(ctx, n.RecipientID, body)
}

func (d *Dispatcher) sendEmail(ctx context.Context, n *models.Notification) error {
	user, err := d.users.GetUserByID(ctx, n.RecipientID)
	if err != nil {
		return errors.Wrap(err, "load recipient")
	}
	if user.Email == "" {
		return nil
	}
	return d.mail.Send(ctx, mailer.Message{
		To:      user.Email,
		Subject: "New notification on Inkwell",
		Body:    n.Message,
	})
}

func (d *Dispatcher) sendWebPush(ctx context.Context, n *models.Notification) error {
	tokens, err := d.tokens.ListTokens(ctx, n.RecipientID)
	if err != nil {
		return errors.Wrap(err, "load device tokens")
	}
	data := map[string]string{
		"notification_id": strconv.FormatUint(uint64(n.ID), 10),
		"kind":            string(n.Kind),
	}
	if n.PostID != nil {
		data["post_id"] = strconv.FormatUint(uint64(*n.PostID), 10)
	}
	return d.pusher.Push(ctx, tokens, pushTitle, n.Message, data)
}
