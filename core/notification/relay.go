package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/Iamayomi/academic-management-platform/core"
)

// Client is a connected consumer. Send must not block; it returns false when the message was dropped.
type Client interface {
	Send(message string) bool
}

type Relay struct {
	broker Broker
	logger core.Logger

	mu      sync.RWMutex
	clients map[Client]struct{}

	sub  Subscription
	done chan struct{}
}

func NewRelay(broker Broker, logger core.Logger) *Relay {
	return &Relay{
		broker:  broker,
		logger:  logger,
		clients: make(map[Client]struct{}),
		done:    make(chan struct{}),
	}
}

// Start subscribes to Channel once and forwards messages until ctx is done, Stop is called
// or the subscription ends.
func (r *Relay) Start(ctx context.Context) error {
	sub, err := r.broker.Subscribe(ctx, Channel)
	if err != nil {
		return errors.Wrap(err, "subscribing to "+Channel)
	}
	r.sub = sub

	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Messages():
				if !ok {
					r.logger.Warn("notification subscription closed")
					return
				}
				relayed.Inc()
				r.Broadcast(msg)
			}
		}
	}()
	return nil
}

// Stop closes the subscription and waits for the forwarding loop to return.
func (r *Relay) Stop() error {
	if r.sub == nil {
		return nil
	}
	err := r.sub.Close()
	<-r.done
	return err
}

// Broadcast hands msg to every registered client.
func (r *Relay) Broadcast(msg string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.clients {
		if !c.Send(msg) {
			dropped.Inc()
		}
	}
}

func (r *Relay) Register(c Client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	n := len(r.clients)
	r.mu.Unlock()

	connectedClients.Set(float64(n))
	r.logger.Info(fmt.Sprintf("notification client connected (%d connected)", n))
}

func (r *Relay) Unregister(c Client) {
	r.mu.Lock()
	if _, ok := r.clients[c]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.clients, c)
	n := len(r.clients)
	r.mu.Unlock()

	connectedClients.Set(float64(n))
	r.logger.Info(fmt.Sprintf("notification client disconnected (%d connected)", n))
}

func (r *Relay) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
