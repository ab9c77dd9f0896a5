package stream

import "sync"

// Behavior is a Subject that remembers its latest value and replays it to every new subscriber.
type Behavior[T any] struct {
	subject *Subject[T]

	mu    sync.RWMutex
	value T
}

// NewBehavior creates a behavior holding initial
func NewBehavior[T any](initial T) *Behavior[T] {
	return &Behavior[T]{
		subject: NewSubject[T](),
		value:   initial,
	}
}

// Value returns the latest value
func (b *Behavior[T]) Value() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

// Next stores v and emits it.  Values emitted after completion are ignored.
func (b *Behavior[T]) Next(v T) {
	b.mu.Lock()
	if b.subject.Done() {
		b.mu.Unlock()
		return
	}
	b.value = v
	// Queued under the same lock Subscribe uses, so a new subscriber either replays v or receives it, never neither
	subs := b.subject.queue(v)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.drain()
	}
}

// Subscribe delivers the current value first, then every later value.  The observer is attached before the
// current value is delivered, so values emitted from inside that first callback are not lost.
func (b *Behavior[T]) Subscribe(o Observer[T]) *Subscription {
	b.mu.Lock()
	sub, err := b.subject.attach(o)
	if sub == nil {
		b.mu.Unlock()
		notifyTerminal(o, err)
		return Empty()
	}
	sub.push(nextNotification(b.value), false)
	b.mu.Unlock()

	sub.drain()
	return b.subject.subscription(sub)
}

// Complete finishes the behavior
func (b *Behavior[T]) Complete() {
	b.mu.Lock()
	subs := b.subject.seal(nil)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.drain()
	}
}

// Done reports whether the behavior has finished
func (b *Behavior[T]) Done() bool {
	return b.subject.Done()
}

// AsStream hides the emitting side
func (b *Behavior[T]) AsStream() Stream[T] {
	return readOnly[T]{b}
}
