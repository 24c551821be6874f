// Package mpv drives playback sessions through external mpv
// processes controlled over mpv's JSON IPC protocol. Each session
// gets its own process and its own IPC endpoint; media state is
// observed by polling mpv properties and translated into playback
// events.
package mpv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/diniamo/gopv"
	"github.com/google/uuid"

	"github.com/justchokingaround/playkit/pkg/playback"
)

const (
	// ipcReadyTimeout bounds how long we wait for a freshly spawned
	// mpv to bring up its IPC server.
	ipcReadyTimeout = 5 * time.Second

	// propertyPollInterval is how often the monitor goroutine samples
	// mpv properties to synthesize events.
	propertyPollInterval = 250 * time.Millisecond

	// maxPropertyErrors is the number of consecutive failed property
	// reads before the session is declared dead.
	maxPropertyErrors = 4

	// quitTimeout bounds the graceful quit request before the process
	// is killed outright.
	quitTimeout = 500 * time.Millisecond
)

// Config controls how mpv processes are spawned.
type Config struct {
	// Executable overrides the mpv binary path. Empty means PATH
	// lookup.
	Executable string

	// AssetsDir is the directory asset sources resolve against.
	AssetsDir string

	// LoadUserConfig lets mpv read the user's own mpv.conf. Off by
	// default so user settings cannot interfere with sessions.
	LoadUserConfig bool

	// Fullscreen starts sessions in fullscreen.
	Fullscreen bool

	// ExtraArgs are appended verbatim to every mpv invocation.
	ExtraArgs []string

	// Debug enables mpv's own logging instead of silencing it.
	Debug bool
}

var _ playback.Backend = (*Backend)(nil)

// Backend implements playback.Backend on top of mpv.
type Backend struct {
	cfg        Config
	platform   Platform
	executable string
	log        *slog.Logger

	mu            sync.Mutex
	mixSet        bool
	mixWithOthers bool
	sessions      map[playback.SessionHandle]*session
}

// New validates that mpv is available and returns a backend ready to
// create sessions.
func New(cfg Config, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	platform := DetectPlatform()
	executable, err := FindExecutable(platform, cfg.Executable)
	if err != nil {
		return nil, err
	}
	return &Backend{
		cfg:        cfg,
		platform:   platform,
		executable: executable,
		log:        log,
		sessions:   make(map[playback.SessionHandle]*session),
	}, nil
}

type session struct {
	handle playback.SessionHandle
	cmd    *exec.Cmd
	client *gopv.Client
	ipc    *IPCConfig
	log    *slog.Logger

	events chan playback.Event
	stop   chan struct{}
	done   chan struct{}

	mu     sync.Mutex
	closed bool

	// monitor-only state, no locking needed
	initialized   bool
	completed     bool
	buffering     bool
	lastCacheTime float64
	errCount      int
}

// SetGlobalMixOption records whether audio output should share the
// device with other applications. mpv has no true mixing toggle; the
// closest control is audio-exclusive, which is applied to every live
// session and to all sessions created afterwards.
func (b *Backend) SetGlobalMixOption(ctx context.Context, mixWithOthers bool) error {
	b.mu.Lock()
	b.mixSet = true
	b.mixWithOthers = mixWithOthers
	live := make([]*session, 0, len(b.sessions))
	for _, s := range b.sessions {
		live = append(live, s)
	}
	b.mu.Unlock()

	exclusive := "no"
	if !mixWithOthers {
		exclusive = "yes"
	}
	for _, s := range live {
		if err := s.setProperty("audio-exclusive", exclusive); err != nil {
			return fmt.Errorf("setting audio-exclusive: %w", err)
		}
	}
	return nil
}

// CreateSession spawns an mpv process for the source, waits for its
// IPC server, and starts the property monitor. The session is created
// paused; the controller decides when playback starts.
func (b *Backend) CreateSession(ctx context.Context, src playback.Source) (playback.SessionHandle, error) {
	target, err := b.resolveSource(src)
	if err != nil {
		return "", err
	}

	ipc, err := NewIPCConfig(b.platform)
	if err != nil {
		return "", fmt.Errorf("generating IPC endpoint: %w", err)
	}

	args := b.buildArgs(ipc, src, target)
	b.log.Debug("spawning mpv", "executable", b.executable, "target", target, "ipc", ipc.Address)

	cmd := exec.Command(b.executable, args...)
	setupProcessAttributes(cmd)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting mpv: %w", err)
	}

	if err := waitForIPC(ctx, ipc); err != nil {
		_ = cmd.Process.Kill()
		cleanupSocket(ipc)
		return "", fmt.Errorf("mpv IPC server did not come up: %w", err)
	}

	handle := playback.SessionHandle(uuid.NewString())
	s := &session{
		handle: handle,
		cmd:    cmd,
		ipc:    ipc,
		log:    b.log.With("session", string(handle)),
		events: make(chan playback.Event, 16),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	client, err := gopv.Connect(ipc.connString(), func(err error) {
		s.log.Warn("mpv IPC error", "error", err)
	})
	if err != nil {
		_ = cmd.Process.Kill()
		cleanupSocket(ipc)
		return "", fmt.Errorf("connecting to mpv IPC: %w", err)
	}
	s.client = client

	b.mu.Lock()
	b.sessions[handle] = s
	b.mu.Unlock()

	go s.monitor()
	go s.watchProcess()

	return handle, nil
}

// resolveSource turns a source descriptor into the path or URL handed
// to mpv.
func (b *Backend) resolveSource(src playback.Source) (string, error) {
	switch src.Kind {
	case playback.SourceAsset:
		if b.cfg.AssetsDir == "" {
			return "", errors.New("asset sources require an assets directory")
		}
		return filepath.Join(b.cfg.AssetsDir, src.Package, src.Locator), nil
	case playback.SourceFile, playback.SourceNetwork:
		if src.Locator == "" {
			return "", errors.New("source locator is empty")
		}
		return src.Locator, nil
	default:
		return "", fmt.Errorf("unknown source kind %v", src.Kind)
	}
}

// buildArgs assembles the mpv command line for one session.
func (b *Backend) buildArgs(ipc *IPCConfig, src playback.Source, target string) []string {
	args := []string{
		ipc.serverArg(),
		"--idle=yes",
		"--keep-open=yes",
		"--pause",
		"--force-window=yes",
	}
	if !b.cfg.LoadUserConfig {
		args = append(args, "--no-config")
	}
	if !b.cfg.Debug {
		args = append(args, "--msg-level=all=no")
	}
	if b.cfg.Fullscreen {
		args = append(args, "--fullscreen")
	}
	b.mu.Lock()
	if b.mixSet && !b.mixWithOthers {
		args = append(args, "--audio-exclusive=yes")
	}
	b.mu.Unlock()
	if src.Kind == playback.SourceNetwork && src.FormatHint != playback.FormatAuto {
		// mpv autodetects HLS/DASH, the hint only helps the logs.
		b.log.Debug("network source format hint", "hint", src.FormatHint)
	}
	args = append(args, b.cfg.ExtraArgs...)
	return append(args, target)
}

// waitForIPC polls until mpv's IPC endpoint accepts connections.
func waitForIPC(ctx context.Context, ipc *IPCConfig) error {
	deadline := time.Now().Add(ipcReadyTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ipc.IsSocket() {
			if _, err := os.Stat(ipc.Address); err == nil {
				return nil
			}
		} else if isPipeReady(ipc.Address) {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timed out after %s waiting for %s", ipcReadyTimeout, ipc.Address)
}

func cleanupSocket(ipc *IPCConfig) {
	if ipc.IsSocket() {
		_ = os.Remove(ipc.Address)
	}
}

// Events returns the session's event stream. The channel is closed
// when the session is disposed or its process dies.
func (b *Backend) Events(h playback.SessionHandle) (<-chan playback.Event, error) {
	s, err := b.session(h)
	if err != nil {
		return nil, err
	}
	return s.events, nil
}

// Play resumes playback.
func (b *Backend) Play(ctx context.Context, h playback.SessionHandle) error {
	return b.set(h, "pause", false)
}

// Pause suspends playback.
func (b *Backend) Pause(ctx context.Context, h playback.SessionHandle) error {
	return b.set(h, "pause", true)
}

// SeekTo jumps to an absolute position.
func (b *Backend) SeekTo(ctx context.Context, h playback.SessionHandle, pos time.Duration) error {
	return b.set(h, "time-pos", pos.Seconds())
}

// SetVolume maps the normalized [0,1] volume onto mpv's 0-100 scale.
func (b *Backend) SetVolume(ctx context.Context, h playback.SessionHandle, volume float64) error {
	return b.set(h, "volume", volume*100)
}

// SetPlaybackSpeed adjusts the playback rate.
func (b *Backend) SetPlaybackSpeed(ctx context.Context, h playback.SessionHandle, speed float64) error {
	return b.set(h, "speed", speed)
}

// SetLooping toggles infinite looping of the current file.
func (b *Backend) SetLooping(ctx context.Context, h playback.SessionHandle, looping bool) error {
	value := "no"
	if looping {
		value = "inf"
	}
	return b.set(h, "loop-file", value)
}

// SetPictureInPicture approximates picture-in-picture by pinning the
// window on top; the rect, when non-empty, becomes the window
// geometry.
func (b *Backend) SetPictureInPicture(ctx context.Context, h playback.SessionHandle, enabled bool, rect playback.Rect) error {
	s, err := b.session(h)
	if err != nil {
		return err
	}
	ontop := "no"
	if enabled {
		ontop = "yes"
	}
	if err := s.setProperty("ontop", ontop); err != nil {
		return err
	}
	if enabled && rect.Width > 0 && rect.Height > 0 {
		geometry := fmt.Sprintf("%dx%d+%d+%d",
			int(rect.Width), int(rect.Height), int(rect.X), int(rect.Y))
		if err := s.setProperty("geometry", geometry); err != nil {
			return err
		}
	}
	kind := playback.EventPIPStopped
	if enabled {
		kind = playback.EventPIPStarted
	}
	s.emit(playback.Event{Kind: kind})
	return nil
}

// Position reads the current playback position.
func (b *Backend) Position(ctx context.Context, h playback.SessionHandle) (time.Duration, error) {
	s, err := b.session(h)
	if err != nil {
		return 0, err
	}
	pos, err := s.floatProperty("time-pos")
	if err != nil {
		return 0, err
	}
	return time.Duration(pos * float64(time.Second)), nil
}

// Surface returns nil: mpv renders into its own window, there is no
// texture to hand to the host UI.
func (b *Backend) Surface(h playback.SessionHandle) any { return nil }

// DisposeSession tears the session down: graceful quit, then kill,
// then endpoint cleanup. Unknown handles are a no-op so teardown can
// race process death safely.
func (b *Backend) DisposeSession(ctx context.Context, h playback.SessionHandle) error {
	b.mu.Lock()
	s, ok := b.sessions[h]
	delete(b.sessions, h)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	s.close(true)
	return nil
}

func (b *Backend) session(h playback.SessionHandle) (*session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[h]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", h)
	}
	return s, nil
}

func (b *Backend) set(h playback.SessionHandle, name string, value any) error {
	s, err := b.session(h)
	if err != nil {
		return err
	}
	return s.setProperty(name, value)
}

func (s *session) setProperty(name string, value any) error {
	if _, err := s.client.Request("set_property", name, value); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return nil
}

func (s *session) floatProperty(name string) (float64, error) {
	result, err := s.client.Request("get_property", name)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", name, err)
	}
	value, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s is %T, not a number", name, result)
	}
	return value, nil
}

func (s *session) boolProperty(name string) (bool, error) {
	result, err := s.client.Request("get_property", name)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", name, err)
	}
	value, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("property %s is %T, not a bool", name, result)
	}
	return value, nil
}

// emit delivers an event unless the session is already closed. The
// events channel close is serialized on the same mutex, so a send on
// a closed channel cannot happen.
func (s *session) emit(ev playback.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.log.Warn("event dropped, consumer too slow", "kind", ev.Kind)
	}
}

// close stops the monitor, quits the process, and releases the IPC
// endpoint. Safe to call from both DisposeSession and the process
// watcher.
func (s *session) close(graceful bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	close(s.stop)
	<-s.done

	if graceful {
		quit := make(chan struct{})
		go func() {
			_, _ = s.client.Request("quit")
			close(quit)
		}()
		select {
		case <-quit:
		case <-time.After(quitTimeout):
			s.log.Warn("mpv ignored quit, killing process")
		}
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	cleanupSocket(s.ipc)
}

// watchProcess surfaces unexpected process death as a stream error.
func (s *session) watchProcess() {
	err := s.cmd.Wait()
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.log.Warn("mpv process exited unexpectedly", "error", err)
	s.emit(playback.Event{Kind: playback.EventError, Err: "mpv process exited unexpectedly"})
	s.close(false)
}

// monitor polls mpv properties and synthesizes the event stream:
// media metadata becoming available, buffering transitions, cache
// progress, and end of stream.
func (s *session) monitor() {
	defer close(s.done)
	ticker := time.NewTicker(propertyPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *session) sample() {
	if !s.initialized {
		s.sampleInitialization()
		return
	}

	if eof, err := s.boolProperty("eof-reached"); err == nil {
		s.errCount = 0
		if eof && !s.completed {
			s.completed = true
			s.emit(playback.Event{Kind: playback.EventCompleted})
		} else if !eof {
			s.completed = false
		}
	} else if s.propertyFailed(err) {
		return
	}

	if caching, err := s.boolProperty("paused-for-cache"); err == nil {
		if caching != s.buffering {
			s.buffering = caching
			kind := playback.EventBufferingEnd
			if caching {
				kind = playback.EventBufferingStart
			}
			s.emit(playback.Event{Kind: kind})
		}
	}

	if cache, err := s.floatProperty("demuxer-cache-time"); err == nil && cache != s.lastCacheTime {
		s.lastCacheTime = cache
		s.emit(playback.Event{
			Kind: playback.EventBufferingUpdate,
			Buffered: []playback.TimeRange{{
				Start: 0,
				End:   time.Duration(cache * float64(time.Second)),
			}},
		})
	}
}

// sampleInitialization waits for mpv to learn the media's duration
// and video dimensions, then announces initialization. Audio-only
// media has no width/height; duration alone suffices there.
func (s *session) sampleInitialization() {
	duration, err := s.floatProperty("duration")
	if err != nil {
		s.propertyFailed(err)
		return
	}
	s.errCount = 0
	if duration <= 0 {
		return
	}
	var size playback.Size
	if w, err := s.floatProperty("width"); err == nil {
		if h, err := s.floatProperty("height"); err == nil {
			size = playback.Size{Width: w, Height: h}
		}
	}
	s.initialized = true
	s.emit(playback.Event{
		Kind:     playback.EventInitialized,
		Duration: time.Duration(duration * float64(time.Second)),
		Size:     size,
	})
}

// propertyFailed counts consecutive read failures and declares the
// session dead once the threshold is crossed. Isolated failures are
// normal while mpv is still loading the media.
func (s *session) propertyFailed(err error) bool {
	s.errCount++
	if s.errCount < maxPropertyErrors {
		return false
	}
	s.log.Error("lost mpv IPC connection", "error", err)
	s.emit(playback.Event{Kind: playback.EventError, Err: "mpv IPC connection lost: " + err.Error()})
	go s.close(false)
	return true
}
