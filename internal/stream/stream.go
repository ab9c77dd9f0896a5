package stream

import (
	"sync"

	"github.com/samber/lo"
)

// Observer receives the notifications of a Stream.  Any of the callbacks may be nil.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// Stream is the read-only side of a Subject.  Observers are called synchronously on the goroutine that emits,
// unless that observer is already being notified, in which case the running delivery picks the value up.
type Stream[T any] interface {
	Subscribe(o Observer[T]) *Subscription
}

// Subscription is returned by Subscribe and detaches the observer when Unsubscribe is called.  Unsubscribe is
// safe to call any number of times.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func newSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Unsubscribe stops delivery to the observer
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Empty is a subscription with nothing to cancel
func Empty() *Subscription {
	return newSubscription(nil)
}

// subscriber queues notifications so that one observer sees them in emission order and never re-entrantly.  A
// notification raised while the observer is running, on any goroutine, is delivered by the goroutine already
// draining the queue once the running callback returns.
type subscriber[T any] struct {
	observer Observer[T]

	mu       sync.Mutex
	pending  []func(Observer[T])
	draining bool
	sealed   bool // a terminal notification was queued
	closed   bool // unsubscribed, queued notifications are dropped
}

func (s *subscriber[T]) push(n func(Observer[T]), terminal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed || s.closed {
		return
	}
	s.pending = append(s.pending, n)
	s.sealed = terminal
}

func (s *subscriber[T]) drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.pending) > 0 && !s.closed {
		n := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
		n(s.observer)
		s.mu.Lock()
	}
	s.pending = nil
	s.draining = false
	s.mu.Unlock()
}

func (s *subscriber[T]) close() {
	s.mu.Lock()
	s.closed = true
	s.pending = nil
	s.mu.Unlock()
}

func nextNotification[T any](v T) func(Observer[T]) {
	return func(o Observer[T]) {
		if o.Next != nil {
			o.Next(v)
		}
	}
}

func terminalNotification[T any](err error) func(Observer[T]) {
	return func(o Observer[T]) { notifyTerminal(o, err) }
}

// Subject is a multicast stream.  Values passed to Next are delivered to every observer subscribed at that moment.
type Subject[T any] struct {
	mu          sync.Mutex
	subscribers []*subscriber[T]
	done        bool
	err         error
}

// NewSubject creates an open subject with no subscribers
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe attaches an observer.  Subscribing to a finished subject replays the terminal notification only.
func (s *Subject[T]) Subscribe(o Observer[T]) *Subscription {
	sub, err := s.attach(o)
	if sub == nil {
		notifyTerminal(o, err)
		return Empty()
	}
	return s.subscription(sub)
}

// attach adds o to the subscriber list.  It returns a nil subscriber and the terminal error once finished.
func (s *Subject[T]) attach(o Observer[T]) (*subscriber[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, s.err
	}
	sub := &subscriber[T]{observer: o}
	s.subscribers = append(s.subscribers, sub)
	return sub, nil
}

func (s *Subject[T]) subscription(sub *subscriber[T]) *Subscription {
	return newSubscription(func() { s.remove(sub) })
}

// Next emits a value to all current subscribers.  Emitting on a finished subject does nothing.
func (s *Subject[T]) Next(v T) {
	subs := s.queue(v)
	for _, sub := range subs {
		sub.drain()
	}
}

// queue adds v to the pending notifications of every current subscriber and returns them for draining
func (s *Subject[T]) queue(v T) []*subscriber[T] {
	subs := s.snapshot()
	n := nextNotification(v)
	for _, sub := range subs {
		sub.push(n, false)
	}
	return subs
}

// Error finishes the subject with an error
func (s *Subject[T]) Error(err error) {
	s.finish(err)
}

// Complete finishes the subject.  Calling it again has no effect.
func (s *Subject[T]) Complete() {
	s.finish(nil)
}

// Done reports whether the subject has been completed or errored
func (s *Subject[T]) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Len returns the number of attached observers
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// AsStream hides the emitting side of the subject
func (s *Subject[T]) AsStream() Stream[T] {
	return readOnly[T]{s}
}

func (s *Subject[T]) finish(err error) {
	for _, sub := range s.seal(err) {
		sub.drain()
	}
}

// seal marks the subject finished and queues the terminal notification for every subscriber.  Nothing is
// returned when the subject already was finished.
func (s *Subject[T]) seal(err error) []*subscriber[T] {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	s.err = err
	subs := s.subscribers
	s.subscribers = nil
	s.mu.Unlock()

	n := terminalNotification[T](err)
	for _, sub := range subs {
		sub.push(n, true)
	}
	return subs
}

// snapshot copies the subscriber list so observers may subscribe or unsubscribe while being notified.
func (s *Subject[T]) snapshot() []*subscriber[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	return append([]*subscriber[T](nil), s.subscribers...)
}

func (s *Subject[T]) remove(sub *subscriber[T]) {
	s.mu.Lock()
	s.subscribers = lo.Without(s.subscribers, sub)
	s.mu.Unlock()
	sub.close()
}

func notifyTerminal[T any](o Observer[T], err error) {
	if err != nil {
		if o.Error != nil {
			o.Error(err)
		}
		return
	}
	if o.Complete != nil {
		o.Complete()
	}
}

type readOnly[T any] struct {
	src Stream[T]
}

func (r readOnly[T]) Subscribe(o Observer[T]) *Subscription {
	return r.src.Subscribe(o)
}

type failed[T any] struct {
	err error
}

// Fail returns a stream that errors every subscriber immediately
func Fail[T any](err error) Stream[T] {
	return failed[T]{err: err}
}

func (f failed[T]) Subscribe(o Observer[T]) *Subscription {
	if o.Error != nil {
		o.Error(f.err)
	}
	return Empty()
}
