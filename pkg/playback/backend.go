package playback

import (
	"context"
	"time"
)

// SessionHandle identifies one backend-managed video session. Handles
// are opaque to the controller; the zero value means "no session".
type SessionHandle string

// SourceKind discriminates where a session's media comes from.
type SourceKind int

const (
	// SourceAsset is a media file bundled with the application.
	SourceAsset SourceKind = iota
	// SourceNetwork is a media URL.
	SourceNetwork
	// SourceFile is a path on the local filesystem.
	SourceFile
)

func (k SourceKind) String() string {
	switch k {
	case SourceAsset:
		return "asset"
	case SourceNetwork:
		return "network"
	case SourceFile:
		return "file"
	default:
		return "unknown"
	}
}

// FormatHint tells the backend the container format of a network
// source when it cannot be derived from the locator.
type FormatHint int

const (
	// FormatAuto lets the backend sniff the format.
	FormatAuto FormatHint = iota
	// FormatHLS is HTTP Live Streaming.
	FormatHLS
	// FormatDASH is Dynamic Adaptive Streaming over HTTP.
	FormatDASH
	// FormatSmoothStreaming is Microsoft Smooth Streaming.
	FormatSmoothStreaming
	// FormatOther is a progressive container the backend should not
	// try adaptive handling for.
	FormatOther
)

// Source describes the media a session should open. Build one with
// AssetSource, NetworkSource, or FileSource; only the fields valid
// for the kind are populated.
type Source struct {
	Kind    SourceKind
	Locator string

	// Package qualifies asset sources bundled by another package.
	Package string

	// FormatHint applies to network sources only.
	FormatHint FormatHint
}

// AssetSource describes a bundled asset. pkg may be empty for assets
// bundled by the application itself.
func AssetSource(name, pkg string) Source {
	return Source{Kind: SourceAsset, Locator: name, Package: pkg}
}

// NetworkSource describes a remote media URL.
func NetworkSource(url string, hint FormatHint) Source {
	return Source{Kind: SourceNetwork, Locator: url, FormatHint: hint}
}

// FileSource describes a local file path.
func FileSource(path string) Source {
	return Source{Kind: SourceFile, Locator: path}
}

// EventKind enumerates the notifications a backend session emits.
type EventKind int

const (
	// EventUnknown is ignored by the controller.
	EventUnknown EventKind = iota
	// EventInitialized carries the media duration and size.
	EventInitialized
	// EventCompleted signals playback reached the end of the media.
	EventCompleted
	// EventBufferingUpdate carries the replacement buffered ranges.
	EventBufferingUpdate
	// EventBufferingStart signals the session stalled on buffering.
	EventBufferingStart
	// EventBufferingEnd signals buffering caught up.
	EventBufferingEnd
	// EventPIPStarted signals the picture-in-picture overlay opened.
	EventPIPStarted
	// EventPIPStopped signals the picture-in-picture overlay closed.
	EventPIPStopped
	// EventPIPExpanded signals the user tapped the overlay's expand
	// button.
	EventPIPExpanded
	// EventPIPClosed signals the user tapped the overlay's close
	// button.
	EventPIPClosed
	// EventError carries a terminal session error description.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventInitialized:
		return "initialized"
	case EventCompleted:
		return "completed"
	case EventBufferingUpdate:
		return "bufferingUpdate"
	case EventBufferingStart:
		return "bufferingStart"
	case EventBufferingEnd:
		return "bufferingEnd"
	case EventPIPStarted:
		return "pipStarted"
	case EventPIPStopped:
		return "pipStopped"
	case EventPIPExpanded:
		return "pipExpanded"
	case EventPIPClosed:
		return "pipClosed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one inbound notification from a backend session. Only the
// fields relevant to the kind are populated.
type Event struct {
	Kind     EventKind
	Duration time.Duration // EventInitialized
	Size     Size          // EventInitialized
	Buffered []TimeRange   // EventBufferingUpdate
	Err      string        // EventError
}

// Rect is the picture-in-picture source rectangle in logical pixels.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Backend is the platform video engine a Controller drives. One
// backend may manage many sessions; each controller owns exactly one
// handle. Implementations must be safe for concurrent use.
type Backend interface {
	// SetGlobalMixOption toggles mixing with audio from other
	// applications. This is a global backend setting, not a
	// per-session one.
	SetGlobalMixOption(ctx context.Context, mixWithOthers bool) error

	// CreateSession opens the source and returns the session handle.
	CreateSession(ctx context.Context, src Source) (SessionHandle, error)

	// DisposeSession releases the session and everything it owns.
	DisposeSession(ctx context.Context, h SessionHandle) error

	// Events returns the event stream for a session. The channel is
	// closed on disposal or after a terminal error and is not
	// restartable.
	Events(h SessionHandle) (<-chan Event, error)

	Play(ctx context.Context, h SessionHandle) error
	Pause(ctx context.Context, h SessionHandle) error
	SeekTo(ctx context.Context, h SessionHandle, pos time.Duration) error
	SetVolume(ctx context.Context, h SessionHandle, volume float64) error
	SetPlaybackSpeed(ctx context.Context, h SessionHandle, speed float64) error
	SetLooping(ctx context.Context, h SessionHandle, looping bool) error
	SetPictureInPicture(ctx context.Context, h SessionHandle, enabled bool, src Rect) error

	// Position returns the session's current playback offset.
	Position(ctx context.Context, h SessionHandle) (time.Duration, error)

	// Surface returns an opaque renderable for the session, consumed
	// by view widgets only. Backends that render into a window of
	// their own return nil.
	Surface(h SessionHandle) any
}

// CaptionLoader produces the caption table for a session. The
// controller calls Load at most once, lazily, during Initialize, and
// caches the result for the controller's lifetime.
type CaptionLoader interface {
	Load(ctx context.Context) ([]Caption, error)
}
