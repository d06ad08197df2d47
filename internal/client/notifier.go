package client

import "sync"

// Notifier surfaces failures to the user. Alert must not block.
type Notifier interface {
	Alert(err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

// Alert calls f(err).
func (f NotifierFunc) Alert(err error) { f(err) }

type discard struct{}

func (discard) Alert(error) {}

// Discard drops every alert. Used when the caller handles returned errors itself.
var Discard Notifier = discard{}

// ChanNotifier delivers alerts on a buffered channel. When the buffer is full
// new alerts are dropped rather than stalling the client.
type ChanNotifier struct {
	ch chan error
}

// NewChanNotifier creates a notifier with room for size pending alerts.
func NewChanNotifier(size int) *ChanNotifier {
	if size <= 0 {
		size = 1
	}
	return &ChanNotifier{ch: make(chan error, size)}
}

// Alert queues err if there is room.
func (n *ChanNotifier) Alert(err error) {
	select {
	case n.ch <- err:
	default:
	}
}

// C returns the channel alerts arrive on.
func (n *ChanNotifier) C() <-chan error {
	return n.ch
}

// Recorder keeps every alert. Useful in tests.
type Recorder struct {
	mu   sync.Mutex
	errs []error
}

// Alert records err.
func (r *Recorder) Alert(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Alerts returns a copy of everything recorded so far.
func (r *Recorder) Alerts() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Count returns the number of alerts recorded.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

// Reset forgets recorded alerts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = nil
}
