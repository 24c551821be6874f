package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// pollInterval is how often the controller queries the backend for
// the current position while playing.
const pollInterval = 500 * time.Millisecond

// Option configures a Controller at construction. Construction
// parameters are immutable for the controller's lifetime.
type Option func(*Controller)

// WithCaptionLoader supplies the closed-caption collaborator. The
// loader runs at most once, during Initialize.
func WithCaptionLoader(l CaptionLoader) Option {
	return func(c *Controller) { c.loader = l }
}

// WithMixWithOthers configures the backend's global audio mixing
// option, applied before session creation.
func WithMixWithOthers(mix bool) Option {
	return func(c *Controller) {
		c.mixSet = true
		c.mixWithOthers = mix
	}
}

// WithLifecycle attaches the application lifecycle policy: the
// controller pauses on backgrounding (unless picture-in-picture is
// showing) and resumes on foregrounding if playback was active.
func WithLifecycle(n LifecycleNotifier) Option {
	return func(c *Controller) { c.lifecycleSrc = n }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// Controller orchestrates one video session's lifecycle: it creates
// the backend session, folds backend events into Value snapshots,
// publishes every new snapshot to observers, and mediates commands
// against the current state.
//
// Commands are optimistic: the local snapshot reflects the caller's
// intent immediately, and the matching backend call is issued only
// when the session is initialized, not disposed, and has a handle.
// SetLooping and SetPlaybackSpeed may be called before
// initialization; their backend calls are replayed once the
// initialized event arrives.
//
// All methods are safe for concurrent use. Observers run
// synchronously on the goroutine that produced the state change.
type Controller struct {
	backend       Backend
	source        Source
	loader        CaptionLoader
	mixSet        bool
	mixWithOthers bool
	lifecycleSrc  LifecycleNotifier
	log           *slog.Logger

	mu        sync.Mutex
	value     Value
	handle    SessionHandle
	observers []*observer
	captions  []Caption

	initStarted  bool
	initSignaled bool
	initErr      error
	initDone     chan struct{}
	createDone   chan struct{}

	pollStop chan struct{}
	poll     time.Duration

	disposed bool

	unsubLifecycle func()
	wasPlaying     bool
}

type observer struct {
	fn func(Value)
}

// New builds a controller for one session on the given backend. The
// backend is an explicit dependency; the controller never reaches for
// a process-wide default.
func New(backend Backend, src Source, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		source:  src,
		value:   NewValue(),
		log:     slog.Default(),
		poll:    pollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Value returns the latest snapshot.
func (c *Controller) Value() Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Handle returns the backend session handle, intended for surface
// rendering only. Zero before Initialize and after Dispose.
func (c *Controller) Handle() SessionHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Surface returns the backend's renderable for this session, or nil
// when there is no live session.
func (c *Controller) Surface() any {
	h := c.Handle()
	if h == "" {
		return nil
	}
	return c.backend.Surface(h)
}

// Subscribe registers an observer invoked synchronously with the new
// snapshot after every state replacement, in registration order. The
// returned function removes the observer; calling it twice is
// harmless.
func (c *Controller) Subscribe(fn func(Value)) (unsubscribe func()) {
	ob := &observer{fn: fn}
	c.mu.Lock()
	c.observers = append(c.observers, ob)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, o := range c.observers {
				if o == ob {
					c.observers = append(c.observers[:i], c.observers[i+1:]...)
					break
				}
			}
		})
	}
}

// Initialize creates the backend session and blocks until the backend
// reports it initialized, an error arrives first, or ctx is done.
// Single-shot: a second call fails with ErrAlreadyInitialized. The
// returned error wraps ErrCreation when session creation fails and
// ErrStreamFailed when the event stream ends before initialization.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if c.initStarted {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.initStarted = true
	c.initDone = make(chan struct{})
	c.createDone = make(chan struct{})
	c.mu.Unlock()

	// Lifecycle policy first, so background transitions during a slow
	// creation are already handled.
	if c.lifecycleSrc != nil {
		unsub := c.lifecycleSrc.Subscribe(c.onLifecycle)
		c.mu.Lock()
		c.unsubLifecycle = unsub
		c.mu.Unlock()
	}

	// The mixing option is a global backend setting and must precede
	// session creation.
	if c.mixSet {
		if err := c.backend.SetGlobalMixOption(ctx, c.mixWithOthers); err != nil {
			c.settleCreate()
			return fmt.Errorf("apply mix option: %w", err)
		}
	}

	handle, err := c.backend.CreateSession(ctx, c.source)
	c.mu.Lock()
	close(c.createDone)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrCreation, err)
	}
	if c.disposed {
		// Dispose ran while the session was being created; it could
		// not see the handle, so tear the fresh session down here.
		c.mu.Unlock()
		if derr := c.backend.DisposeSession(ctx, handle); derr != nil {
			c.log.Warn("dispose session created during teardown", "err", derr)
		}
		return ErrDisposed
	}
	c.handle = handle
	c.mu.Unlock()

	// Captions load exactly once, before the event subscription, and
	// the table immediately resolves the caption for the current
	// position.
	if c.loader != nil {
		cues, lerr := c.loader.Load(ctx)
		if lerr != nil {
			c.log.Warn("load captions", "err", lerr)
		} else {
			c.mu.Lock()
			c.captions = cues
			pos := c.value.Position
			c.mu.Unlock()
			c.update(WithCaption(CaptionAt(cues, pos)))
		}
	}

	events, err := c.backend.Events(handle)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStreamFailed, err)
	}
	go c.consume(events)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.initDone:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.initErr
	}
}

// settleCreate closes createDone so a concurrent Dispose stops
// waiting, used on the failure paths before session creation.
func (c *Controller) settleCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.createDone:
	default:
		close(c.createDone)
	}
}

// consume drains the backend event stream in arrival order. Events
// after disposal are dropped. The stream closing while the controller
// is still live is a stream failure and is treated like a playback
// error.
func (c *Controller) consume(events <-chan Event) {
	for ev := range events {
		c.onEvent(ev)
	}

	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()
	if disposed {
		return
	}
	c.fail(fmt.Errorf("%w: event stream ended unexpectedly", ErrStreamFailed),
		"event stream ended unexpectedly")
}

// onEvent folds one backend event into the snapshot and applies the
// controller-side effects for its kind.
func (c *Controller) onEvent(ev Event) {
	if ev.Kind == EventError {
		c.fail(fmt.Errorf("playback: %s", ev.Err), ev.Err)
		return
	}
	if ev.Kind == EventCompleted {
		c.stopPolling()
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.value = fold(c.value, ev)
	v := c.value
	h := c.handle
	obs := c.snapshotObservers()
	var done chan struct{}
	if ev.Kind == EventInitialized && !c.initSignaled {
		c.initSignaled = true
		done = c.initDone
	}
	c.mu.Unlock()

	notify(obs, v)

	if done != nil {
		c.applyPendingIntent(v, h)
		close(done)
	}
}

// applyPendingIntent replays state accumulated before the backend
// finished initializing: looping and volume always, then a pending
// play intent, then speed. Speed goes last and only while playing,
// because applying a speed to a paused session triggers an unwanted
// autoplay on at least one backend.
func (c *Controller) applyPendingIntent(v Value, h SessionHandle) {
	ctx := context.Background()
	if err := c.backend.SetLooping(ctx, h, v.IsLooping); err != nil {
		c.log.Warn("apply looping", "err", err)
	}
	if err := c.backend.SetVolume(ctx, h, v.Volume); err != nil {
		c.log.Warn("apply volume", "err", err)
	}
	if v.IsPlaying {
		if err := c.backend.Play(ctx, h); err != nil {
			c.log.Warn("apply play intent", "err", err)
		}
		c.startPolling()
		if v.PlaybackSpeed != 1.0 {
			if err := c.backend.SetPlaybackSpeed(ctx, h, v.PlaybackSpeed); err != nil {
				c.log.Warn("apply playback speed", "err", err)
			}
		}
	}
}

// fail folds an error into the snapshot, cancels polling, and
// completes a pending Initialize with err.
func (c *Controller) fail(err error, description string) {
	c.stopPolling()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.value = fold(c.value, Event{Kind: EventError, Err: description})
	v := c.value
	obs := c.snapshotObservers()
	var done chan struct{}
	if c.initDone != nil && !c.initSignaled {
		c.initSignaled = true
		c.initErr = err
		done = c.initDone
	}
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
	notify(obs, v)
}

// Play starts playback. Before initialization the intent is recorded
// locally and the backend call is deferred to the initialized event.
func (c *Controller) Play(ctx context.Context) error {
	c.update(WithPlaying(true))
	h, ok := c.guard()
	if !ok {
		return nil
	}
	if err := c.backend.Play(ctx, h); err != nil {
		return err
	}
	c.startPolling()
	// A non-default speed has to be re-applied on every transition
	// into the playing state.
	if v := c.Value(); v.PlaybackSpeed != 1.0 {
		return c.backend.SetPlaybackSpeed(ctx, h, v.PlaybackSpeed)
	}
	return nil
}

// Pause pauses playback and cancels position polling.
func (c *Controller) Pause(ctx context.Context) error {
	c.update(WithPlaying(false))
	c.stopPolling()
	h, ok := c.guard()
	if !ok {
		return nil
	}
	return c.backend.Pause(ctx, h)
}

// SetLooping records the looping intent. Callable before
// initialization; the backend call is replayed on the initialized
// event.
func (c *Controller) SetLooping(ctx context.Context, looping bool) error {
	c.update(WithLooping(looping))
	h, ok := c.guard()
	if !ok {
		return nil
	}
	return c.backend.SetLooping(ctx, h, looping)
}

// SetVolume clamps volume to [0, 1] and applies it.
func (c *Controller) SetVolume(ctx context.Context, volume float64) error {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	c.update(WithVolume(volume))
	h, ok := c.guard()
	if !ok {
		return nil
	}
	return c.backend.SetVolume(ctx, h, volume)
}

// SetPlaybackSpeed rejects non-positive speeds with
// ErrInvalidArgument, leaving the snapshot untouched. Callable before
// initialization. The backend call is suppressed while paused and
// issued again on the next Play.
func (c *Controller) SetPlaybackSpeed(ctx context.Context, speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("%w: playback speed must be positive, got %v", ErrInvalidArgument, speed)
	}
	c.update(WithSpeed(speed))
	h, ok := c.guard()
	if !ok {
		return nil
	}
	if !c.Value().IsPlaying {
		return nil
	}
	return c.backend.SetPlaybackSpeed(ctx, h, speed)
}

// SeekTo clamps pos to [0, duration] and seeks. A seek before
// initialization or after disposal is a no-op.
func (c *Controller) SeekTo(ctx context.Context, pos time.Duration) error {
	c.mu.Lock()
	if c.disposed || !c.value.Initialized {
		c.mu.Unlock()
		return nil
	}
	duration := c.value.Duration
	table := c.captions
	c.mu.Unlock()

	if pos < 0 {
		pos = 0
	} else if pos > duration {
		pos = duration
	}
	c.update(WithPosition(pos), WithCaption(CaptionAt(table, pos)))

	h, ok := c.guard()
	if !ok {
		return nil
	}
	return c.backend.SeekTo(ctx, h, pos)
}

// SetPictureInPicture toggles the backend's picture-in-picture
// overlay. src is the source rectangle of the video surface.
func (c *Controller) SetPictureInPicture(ctx context.Context, enabled bool, src Rect) error {
	c.update(WithPIP(enabled))
	h, ok := c.guard()
	if !ok {
		return nil
	}
	return c.backend.SetPictureInPicture(ctx, h, enabled, src)
}

// Dispose tears the session down: it waits for an in-flight session
// creation to settle, cancels polling, stops folding events, disposes
// the backend session, and unregisters the lifecycle observer.
// Idempotent; a second call is a no-op. A disposed controller is
// permanently inert.
func (c *Controller) Dispose(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	created := c.createDone
	c.mu.Unlock()

	if created != nil {
		select {
		case <-created:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	h := c.handle
	c.handle = ""
	unsub := c.unsubLifecycle
	c.unsubLifecycle = nil
	var done chan struct{}
	if c.initDone != nil && !c.initSignaled {
		c.initSignaled = true
		c.initErr = ErrDisposed
		done = c.initDone
	}
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
	c.stopPolling()
	if h != "" {
		if err := c.backend.DisposeSession(ctx, h); err != nil {
			c.log.Warn("dispose session", "err", err)
		}
	}
	if unsub != nil {
		unsub()
	}
	return nil
}

// onLifecycle is the §4.3 policy: backgrounding pauses unless
// picture-in-picture is showing, foregrounding resumes if playback
// was active before.
func (c *Controller) onLifecycle(state AppState) {
	switch state {
	case AppStateBackground:
		c.mu.Lock()
		if c.disposed || c.value.IsShowingPIP {
			c.mu.Unlock()
			return
		}
		was := c.value.IsPlaying
		c.wasPlaying = was
		c.mu.Unlock()
		if was {
			if err := c.Pause(context.Background()); err != nil {
				c.log.Warn("pause on background", "err", err)
			}
		}
	case AppStateForeground:
		c.mu.Lock()
		was := c.wasPlaying
		c.wasPlaying = false
		c.mu.Unlock()
		if was {
			if err := c.Play(context.Background()); err != nil {
				c.log.Warn("resume on foreground", "err", err)
			}
		}
	}
}

// guard reports whether a backend call may be issued, returning the
// handle when it may. Commands keep their optimistic local effect
// either way; a failing guard just skips the backend silently.
func (c *Controller) guard() (SessionHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || !c.value.Initialized || c.handle == "" {
		return "", false
	}
	return c.handle, true
}

// update replaces the snapshot and notifies observers. A no-op after
// disposal: no state change, no notification.
func (c *Controller) update(changes ...Change) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.value = c.value.With(changes...)
	v := c.value
	obs := c.snapshotObservers()
	c.mu.Unlock()
	notify(obs, v)
}

// snapshotObservers copies the observer list. Callers must hold mu.
func (c *Controller) snapshotObservers() []*observer {
	obs := make([]*observer, len(c.observers))
	copy(obs, c.observers)
	return obs
}

func notify(obs []*observer, v Value) {
	for _, ob := range obs {
		ob.fn(v)
	}
}

// startPolling launches the position poller, replacing any live one.
// At most one poller runs per controller.
func (c *Controller) startPolling() {
	c.stopPolling()
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.pollStop = stop
	interval := c.poll
	c.mu.Unlock()
	go c.pollPosition(interval, stop)
}

// stopPolling cancels the live poller, if any.
func (c *Controller) stopPolling() {
	c.mu.Lock()
	if c.pollStop != nil {
		close(c.pollStop)
		c.pollStop = nil
	}
	c.mu.Unlock()
}

// pollPosition queries the backend position at a fixed interval while
// playing and folds the position plus the active caption into the
// snapshot.
func (c *Controller) pollPosition(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h, ok := c.guard()
			if !ok {
				return
			}
			pos, err := c.backend.Position(context.Background(), h)
			if err != nil {
				c.log.Warn("poll position", "err", err)
				continue
			}
			c.mu.Lock()
			playing := c.value.IsPlaying
			table := c.captions
			c.mu.Unlock()
			if !playing {
				continue
			}
			c.update(WithPosition(pos), WithCaption(CaptionAt(table, pos)))
		}
	}
}
