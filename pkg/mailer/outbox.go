package mailer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/inkwell/backend/pkg/logger"
)

// Outbox sends mail in the background through a fixed set of workers.
// Enqueue never blocks; a full queue drops the message.
type Outbox struct {
	sender  Sender
	ch      chan Message
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewOutbox(sender Sender, queueSize int, timeout time.Duration) *Outbox {
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Outbox{sender: sender, ch: make(chan Message, queueSize), timeout: timeout}
}

// Start launches the workers and returns a stop function that drains what
// is already queued.
func (o *Outbox) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for msg := range o.ch {
				o.deliver(msg)
			}
		}()
	}

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(o.ch) })
		done := make(chan struct{})
		go func() {
			o.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (o *Outbox) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	if err := o.sender.Send(ctx, msg); err != nil {
		logger.Warn("mail delivery failed", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
	}
}

// Enqueue reports whether the message was accepted.
func (o *Outbox) Enqueue(msg Message) bool {
	select {
	case o.ch <- msg:
		return true
	default:
		logger.Warn("mail queue full, drop", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return false
	}
}

// QueueLen returns the current number of queued messages.
func (o *Outbox) QueueLen() int { return len(o.ch) }
