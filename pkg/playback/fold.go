package playback

// fold applies one backend event to a snapshot and returns the next
// snapshot. It is pure: no controller state, no side effects. The
// controller layers side effects (timer management, deferred backend
// calls, init completion) on top of the folded result.
func fold(v Value, e Event) Value {
	switch e.Kind {
	case EventInitialized:
		return v.With(WithDuration(e.Duration), WithSize(e.Size))
	case EventCompleted:
		// Snap the reported position to the end of the media.
		return v.With(WithPlaying(false), WithPosition(v.Duration))
	case EventBufferingUpdate:
		return v.With(WithBuffered(e.Buffered))
	case EventBufferingStart:
		return v.With(WithBuffering(true))
	case EventBufferingEnd:
		return v.With(WithBuffering(false))
	case EventPIPStarted:
		return v.With(WithPIP(true))
	case EventPIPStopped:
		return v.With(WithPIP(false))
	case EventPIPExpanded:
		return v.With(WithBuffering(false))
	case EventPIPClosed:
		return v.With(WithPlaying(false), WithBuffering(false))
	case EventError:
		return v.With(WithError(e.Err))
	default:
		return v
	}
}
