package playback

import "sync"

// AppState is a coarse application lifecycle state delivered by the
// embedding host.
type AppState int

const (
	// AppStateForeground means the application is visible and
	// interactive.
	AppStateForeground AppState = iota
	// AppStateBackground means the application is no longer visible.
	AppStateBackground
)

func (s AppState) String() string {
	switch s {
	case AppStateForeground:
		return "foreground"
	case AppStateBackground:
		return "background"
	default:
		return "unknown"
	}
}

// LifecycleNotifier delivers application lifecycle transitions. A
// controller subscribes during Initialize and unsubscribes at
// Dispose.
type LifecycleNotifier interface {
	// Subscribe registers fn and returns a function that removes it.
	// Unsubscribing more than once is harmless.
	Subscribe(fn func(AppState)) (unsubscribe func())
}

// AppLifecycle is a host-driven LifecycleNotifier. The embedding
// application calls Dispatch when it moves between foreground and
// background; subscribers run synchronously in registration order.
type AppLifecycle struct {
	mu     sync.Mutex
	nextID int
	order  []int
	subs   map[int]func(AppState)
}

// NewAppLifecycle returns an empty lifecycle notifier.
func NewAppLifecycle() *AppLifecycle {
	return &AppLifecycle{subs: make(map[int]func(AppState))}
}

// Subscribe implements LifecycleNotifier.
func (l *AppLifecycle) Subscribe(fn func(AppState)) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.order = append(l.order, id)
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[id]; !ok {
			return
		}
		delete(l.subs, id)
		for i, v := range l.order {
			if v == id {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
}

// Dispatch delivers a lifecycle transition to all subscribers.
func (l *AppLifecycle) Dispatch(state AppState) {
	l.mu.Lock()
	fns := make([]func(AppState), 0, len(l.order))
	for _, id := range l.order {
		if fn, ok := l.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
