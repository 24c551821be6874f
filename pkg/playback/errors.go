package playback

import "errors"

var (
	// ErrAlreadyInitialized is returned when Initialize is called a
	// second time on the same controller.
	ErrAlreadyInitialized = errors.New("playback: controller already initialized")

	// ErrDisposed is returned when Initialize is called on a disposed
	// controller, or completes a pending Initialize cut short by
	// Dispose.
	ErrDisposed = errors.New("playback: controller disposed")

	// ErrInvalidArgument marks a synchronously rejected command
	// argument. No state changes when it is returned.
	ErrInvalidArgument = errors.New("playback: invalid argument")

	// ErrCreation marks a backend failure to open the source. The
	// controller cannot be retried; construct a new one.
	ErrCreation = errors.New("playback: session creation failed")

	// ErrStreamFailed marks an event subscription that ended before
	// the session could be used. Treated like a playback error.
	ErrStreamFailed = errors.New("playback: event stream failed")
)
