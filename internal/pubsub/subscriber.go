package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// Status mirrors the connection states a client surfaces to its user. It is
// purely observational and never gates gameplay actions.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusDisconnected Status = "disconnected"
	StatusFailed       Status = "failed"
)

var errSubscriptionClosed = errors.New("subscription channel closed")

// Options bounds the reconnect loop. Zero values fall back to the defaults.
type Options struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

const (
	defaultMaxAttempts     = 10
	defaultInitialInterval = time.Second
	defaultMaxInterval     = 30 * time.Second
)

// Subscriber maintains exactly one live subscription to a session topic and
// dispatches every received snapshot to its handler. On transport loss it
// reconnects with bounded exponential backoff; once the attempt budget is
// spent it parks in StatusFailed and returns.
type Subscriber struct {
	logger  *slog.Logger
	client  *redis.Client
	topic   string
	handler func(event Event)
	opts    Options

	mu       sync.Mutex
	status   Status
	onStatus func(status Status)
}

func NewSubscriber(logger *slog.Logger, client *redis.Client, topic string, handler func(event Event), opts Options) *Subscriber {
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = defaultInitialInterval
	}
	if opts.MaxInterval == 0 {
		opts.MaxInterval = defaultMaxInterval
	}

	return &Subscriber{
		logger:  logger.With("component", "subscriber", "topic", topic),
		client:  client,
		topic:   topic,
		handler: handler,
		opts:    opts,
		status:  StatusDisconnected,
	}
}

func (that *Subscriber) Status() Status {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

// OnStatus registers an observer for status transitions. Must be called
// before Run.
func (that *Subscriber) OnStatus(fn func(status Status)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onStatus = fn
}

// Run blocks until the context is cancelled or the reconnect budget is
// exhausted. Cancellation is a normal shutdown and returns nil.
func (that *Subscriber) Run(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = that.opts.InitialInterval
	policy.MaxInterval = that.opts.MaxInterval
	policy.MaxElapsedTime = 0

	that.setStatus(StatusConnecting)

	attempts := 0

	for {
		var connected bool

		err := that.consume(ctx, &connected)
		if ctx.Err() != nil {
			that.setStatus(StatusDisconnected)
			return nil
		}

		if connected {
			// a healthy subscription restores the full reconnect budget
			attempts = 0
			policy.Reset()
		}

		that.logger.Warn("subscription lost", "error", err)
		that.setStatus(StatusDisconnected)

		attempts++
		if attempts > that.opts.MaxAttempts {
			that.setStatus(StatusFailed)
			return fmt.Errorf("giving up after %d reconnect attempts: %w", that.opts.MaxAttempts, err)
		}

		that.setStatus(StatusReconnecting)

		timer := time.NewTimer(policy.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			that.setStatus(StatusDisconnected)
			return nil
		case <-timer.C:
		}
	}
}

// consume holds one subscription for as long as it stays healthy.
func (that *Subscriber) consume(ctx context.Context, connected *bool) error {
	sub := that.client.Subscribe(ctx, that.topic)
	defer func() {
		if err := sub.Close(); err != nil {
			that.logger.Error("failed to close subscription", "error", err)
		}
	}()

	// confirm the subscription before reporting connected
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	*connected = true
	that.setStatus(StatusConnected)

	messages := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errSubscriptionClosed
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				that.logger.Error("failed to unmarshal event", "error", err)
				continue
			}

			that.handler(event)
		}
	}
}

func (that *Subscriber) setStatus(status Status) {
	that.mu.Lock()
	changed := that.status != status
	that.status = status
	notify := that.onStatus
	that.mu.Unlock()

	if changed && notify != nil {
		notify(status)
	}
}
