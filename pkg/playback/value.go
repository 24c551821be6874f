// Package playback implements a UI-layer video playback controller.
//
// The package does no media work of its own. A Controller owns one
// session on an injected Backend (the platform video engine), issues
// transport commands to it, folds its asynchronous events into
// immutable Value snapshots, and publishes each new snapshot to
// subscribed observers. Widgets read snapshots and render; they never
// mutate state.
package playback

import "time"

// Size is the pixel dimensions the backend reports for a session.
// The zero value means the size is not yet known.
type Size struct {
	Width  float64
	Height float64
}

// TimeRange is one buffered span of the media timeline.
type TimeRange struct {
	Start time.Duration
	End   time.Duration
}

// Caption is one time-ranged closed caption. The zero value is the
// sentinel for "no caption at this position".
type Caption struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Empty reports whether c is the no-caption sentinel.
func (c Caption) Empty() bool { return c.Text == "" }

// CaptionAt returns the first caption in table order whose
// [Start, End] interval contains pos. Both bounds are inclusive, so a
// position on the boundary between two adjacent cues resolves to the
// earlier one. Returns the zero Caption when nothing matches.
func CaptionAt(table []Caption, pos time.Duration) Caption {
	for _, c := range table {
		if pos >= c.Start && pos <= c.End {
			return c
		}
	}
	return Caption{}
}

// Value is an immutable snapshot of everything observable about a
// playback session. All mutation goes through With; a published Value
// is never updated in place.
type Value struct {
	// Duration is the total media length. Only meaningful while
	// Initialized is true.
	Duration time.Duration

	// Initialized reports whether the backend has delivered the
	// initialization event for this session. It stands in for the
	// "duration is unknown" state and is cleared again when the
	// session fails.
	Initialized bool

	// Position is the current playback offset. Monotonic while
	// playing, except across seeks.
	Position time.Duration

	// Caption is the caption active at Position.
	Caption Caption

	// Buffered holds the buffered ranges in arrival order. Updates
	// replace the slice wholesale; ranges are not sorted or merged.
	Buffered []TimeRange

	IsPlaying    bool
	IsLooping    bool
	IsBuffering  bool
	IsShowingPIP bool

	// Volume is in [0, 1]. The controller clamps before constructing
	// a new snapshot; Value itself validates nothing.
	Volume float64

	// PlaybackSpeed is > 0, 1.0 being normal speed.
	PlaybackSpeed float64

	// ErrorDescription marks the session as failed when non-empty.
	// Once set the session is terminal for commands.
	ErrorDescription string

	// Size is zero until the session is initialized.
	Size Size
}

// NewValue returns the pre-initialization snapshot: volume and speed
// at their defaults, everything else zero.
func NewValue() Value {
	return Value{Volume: 1.0, PlaybackSpeed: 1.0}
}

// HasError reports whether the session has failed.
func (v Value) HasError() bool { return v.ErrorDescription != "" }

// AspectRatio returns Size.Width / Size.Height, falling back to 1.0
// when the size is unknown or degenerate.
func (v Value) AspectRatio() float64 {
	if v.Size.Width <= 0 || v.Size.Height <= 0 {
		return 1.0
	}
	ratio := v.Size.Width / v.Size.Height
	if ratio <= 0 {
		return 1.0
	}
	return ratio
}

// A Change updates one field of a Value under construction.
type Change func(*Value)

// With returns a copy of v with the given changes applied. Fields not
// named by any change keep their current values, not their defaults.
func (v Value) With(changes ...Change) Value {
	next := v
	for _, apply := range changes {
		apply(&next)
	}
	return next
}

// WithDuration sets the media duration and marks the snapshot
// initialized.
func WithDuration(d time.Duration) Change {
	return func(v *Value) {
		v.Duration = d
		v.Initialized = true
	}
}

// WithPosition sets the playback offset.
func WithPosition(pos time.Duration) Change {
	return func(v *Value) { v.Position = pos }
}

// WithCaption sets the active caption.
func WithCaption(c Caption) Change {
	return func(v *Value) { v.Caption = c }
}

// WithBuffered replaces the buffered ranges.
func WithBuffered(ranges []TimeRange) Change {
	return func(v *Value) { v.Buffered = ranges }
}

// WithPlaying sets the playing flag.
func WithPlaying(playing bool) Change {
	return func(v *Value) { v.IsPlaying = playing }
}

// WithLooping sets the looping flag.
func WithLooping(looping bool) Change {
	return func(v *Value) { v.IsLooping = looping }
}

// WithBuffering sets the buffering flag.
func WithBuffering(buffering bool) Change {
	return func(v *Value) { v.IsBuffering = buffering }
}

// WithPIP sets the picture-in-picture flag.
func WithPIP(showing bool) Change {
	return func(v *Value) { v.IsShowingPIP = showing }
}

// WithVolume sets the volume. Callers clamp to [0, 1] first.
func WithVolume(volume float64) Change {
	return func(v *Value) { v.Volume = volume }
}

// WithSpeed sets the playback speed. Callers validate positivity
// first.
func WithSpeed(speed float64) Change {
	return func(v *Value) { v.PlaybackSpeed = speed }
}

// WithSize sets the video dimensions.
func WithSize(s Size) Change {
	return func(v *Value) { v.Size = s }
}

// WithError marks the session as failed. The duration is forced back
// to unknown so every command requiring initialization becomes a
// no-op, and playback and buffering flags are cleared.
func WithError(description string) Change {
	return func(v *Value) {
		v.ErrorDescription = description
		v.Duration = 0
		v.Initialized = false
		v.IsPlaying = false
		v.IsBuffering = false
	}
}
