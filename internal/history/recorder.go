package history

import (
	"log/slog"
	"sync"
	"time"

	"github.com/justchokingaround/playkit/pkg/playback"
)

// Recorder observes playback snapshots and persists progress at a
// bounded rate. Completion and errors are written immediately;
// ordinary position changes are throttled by the save interval.
type Recorder struct {
	svc      *Service
	source   playback.Source
	title    string
	interval time.Duration
	log      *slog.Logger

	mu        sync.Mutex
	lastSave  time.Time
	completed bool
}

// NewRecorder builds a recorder for one playback session.
func NewRecorder(svc *Service, source playback.Source, title string, interval time.Duration, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Recorder{
		svc:      svc,
		source:   source,
		title:    title,
		interval: interval,
		log:      log,
	}
}

// Attach subscribes the recorder to the controller and returns the
// unsubscribe function.
func (r *Recorder) Attach(c *playback.Controller) func() {
	return c.Subscribe(r.observe)
}

func (r *Recorder) observe(v playback.Value) {
	if !v.Initialized || v.HasError() {
		return
	}

	completed := v.Duration > 0 && v.Position >= v.Duration && !v.IsPlaying

	r.mu.Lock()
	if r.completed {
		r.mu.Unlock()
		return
	}
	if !completed && time.Since(r.lastSave) < r.interval {
		r.mu.Unlock()
		return
	}
	r.lastSave = time.Now()
	r.completed = completed
	r.mu.Unlock()

	err := r.svc.Record(Progress{
		SourceKind: r.source.Kind.String(),
		Locator:    r.source.Locator,
		Title:      r.title,
		Position:   v.Position,
		Total:      v.Duration,
		Completed:  completed,
	})
	if err != nil {
		r.log.Warn("failed to record watch progress", "locator", r.source.Locator, "error", err)
	}
}
