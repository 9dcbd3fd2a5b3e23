// Package notification carries plain-text event messages from the services to connected clients.
//
// Services publish on a single broker channel after each successful write. A Relay subscribes to
// that channel once and fans every message out to all registered clients, unfiltered.
// Delivery is fire-and-forget: nothing is acknowledged, retried or ordered across clients.
package notification

import (
	"context"
	"fmt"

	"github.com/Iamayomi/academic-management-platform/core"
)

// Channel is the broker channel all notifications go through.
const Channel = "notifications"

type (
	Broker interface {
		Publish(ctx context.Context, channel, message string) error
		// Subscribe returns once the subscription is active.
		Subscribe(ctx context.Context, channel string) (Subscription, error)
		Close() error
	}

	Subscription interface {
		// Messages is closed when the subscription ends.
		Messages() <-chan string
		Close() error
	}

	// Publisher is what services use to emit notifications.
	Publisher interface {
		Notify(ctx context.Context, message string)
	}

	publisher struct {
		broker Broker
		logger core.Logger
	}
)

func NewPublisher(broker Broker, logger core.Logger) Publisher {
	return &publisher{broker: broker, logger: logger}
}

// Notify publishes the message on Channel. Failures are logged and swallowed:
// a notification never fails the write that triggered it.
func (p *publisher) Notify(ctx context.Context, message string) {
	if err := p.broker.Publish(ctx, Channel, message); err != nil {
		p.logger.Error(fmt.Sprintf("publishing notification %q: %v", message, err), err)
		publishFailures.Inc()
		return
	}
	published.Inc()
}
