// ABOUTME: Change notification fan-out for gateway subscriptions
// ABOUTME: LocalNotifier delivers in-process pings per collection
package gateway

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

var logger = log.With("component", "gateway")

// SetLogger replaces the package logger.
func SetLogger(l *log.Logger) {
	logger = l.With("component", "gateway")
}

// Notifier signals that a collection changed. Pings carry no payload;
// listeners re-query. Bursts may coalesce into a single ping.
type Notifier interface {
	Publish(ctx context.Context, collection string) error
	Listen(ctx context.Context, collection string) (<-chan struct{}, error)
}

// LocalNotifier is an in-process Notifier.
type LocalNotifier struct {
	mu        sync.Mutex
	listeners map[string]map[chan struct{}]struct{}
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{listeners: make(map[string]map[chan struct{}]struct{})}
}

func (n *LocalNotifier) Publish(_ context.Context, collection string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.listeners[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (n *LocalNotifier) Listen(ctx context.Context, collection string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	set, ok := n.listeners[collection]
	if !ok {
		set = make(map[chan struct{}]struct{})
		n.listeners[collection] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.listeners[collection], ch)
		n.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
