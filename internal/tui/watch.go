// Package tui renders an interactive playback screen for one
// controller: transport controls, a progress bar, captions, and
// session status.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/justchokingaround/playkit/internal/tui/styles"
	"github.com/justchokingaround/playkit/pkg/playback"
)

const seekStep = 5 * time.Second

type snapshotMsg playback.Value

type keyMap struct {
	Toggle    key.Binding
	SeekBack  key.Binding
	SeekFwd   key.Binding
	VolUp     key.Binding
	VolDown   key.Binding
	SpeedUp   key.Binding
	SpeedDown key.Binding
	Loop      key.Binding
	PIP       key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		SeekBack:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "seek -5s")),
		SeekFwd:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "seek +5s")),
		VolUp:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		VolDown:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		SpeedUp:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "speed up")),
		SpeedDown: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "speed down")),
		Loop:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "toggle loop")),
		PIP:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "picture in picture")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model is the bubbletea model for the watch screen.
type Model struct {
	controller *playback.Controller
	title      string
	keys       keyMap

	snapshots chan playback.Value
	unsub     func()

	progress progress.Model
	spinner  spinner.Model

	value    playback.Value
	width    int
	quitting bool
}

// New builds the watch screen and subscribes it to the controller.
func New(c *playback.Controller, title string) *Model {
	m := &Model{
		controller: c,
		title:      title,
		keys:       defaultKeyMap(),
		snapshots:  make(chan playback.Value, 8),
		progress:   progress.New(progress.WithGradient("#be95ff", "#3ddbd9")),
		value:      c.Value(),
	}
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))

	m.unsub = c.Subscribe(func(v playback.Value) {
		select {
		case m.snapshots <- v:
		default:
			// Drop when the UI is behind; the next snapshot carries
			// the full state anyway.
		}
	})
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), m.spinner.Tick)
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-m.snapshots)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.width > 12 {
			m.progress.Width = m.width - 12
		}
		return m, nil

	case snapshotMsg:
		m.value = playback.Value(msg)
		return m, m.waitForSnapshot()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	v := m.value

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.unsub()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		if v.IsPlaying {
			_ = m.controller.Pause(ctx)
		} else {
			_ = m.controller.Play(ctx)
		}

	case key.Matches(msg, m.keys.SeekBack):
		_ = m.controller.SeekTo(ctx, v.Position-seekStep)

	case key.Matches(msg, m.keys.SeekFwd):
		_ = m.controller.SeekTo(ctx, v.Position+seekStep)

	case key.Matches(msg, m.keys.VolUp):
		_ = m.controller.SetVolume(ctx, v.Volume+0.05)

	case key.Matches(msg, m.keys.VolDown):
		_ = m.controller.SetVolume(ctx, v.Volume-0.05)

	case key.Matches(msg, m.keys.SpeedUp):
		_ = m.controller.SetPlaybackSpeed(ctx, v.PlaybackSpeed+0.25)

	case key.Matches(msg, m.keys.SpeedDown):
		if v.PlaybackSpeed > 0.25 {
			_ = m.controller.SetPlaybackSpeed(ctx, v.PlaybackSpeed-0.25)
		}

	case key.Matches(msg, m.keys.Loop):
		_ = m.controller.SetLooping(ctx, !v.IsLooping)

	case key.Matches(msg, m.keys.PIP):
		_ = m.controller.SetPictureInPicture(ctx, !v.IsShowingPIP, playback.Rect{})
	}
	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	v := m.value

	var b strings.Builder
	title := truncate(m.title, max(m.width-8, 16))
	b.WriteString(styles.TitleStyle.Render("  "+title+"  ") + "\n\n")

	if v.HasError() {
		b.WriteString(styles.ErrorStyle.Render("✗ "+v.ErrorDescription) + "\n\n")
		b.WriteString(styles.HelpStyle.Render("q quit"))
		return styles.AppStyle.Render(b.String())
	}

	if !v.Initialized {
		b.WriteString(m.spinner.View() + " " + styles.StatusStyle.Render("opening media...") + "\n")
		return styles.AppStyle.Render(b.String())
	}

	b.WriteString(statusLine(v, m.spinner.View()) + "\n\n")

	ratio := 0.0
	if v.Duration > 0 {
		ratio = float64(v.Position) / float64(v.Duration)
	}
	b.WriteString(m.progress.ViewAs(ratio) + "\n")
	b.WriteString(styles.TimeStyle.Render(formatTime(v.Position)+" / "+formatTime(v.Duration)) + "\n\n")

	if !v.Caption.Empty() {
		b.WriteString(styles.CaptionStyle.Render("  "+v.Caption.Text) + "\n\n")
	}

	b.WriteString(styles.HelpStyle.Render(helpLine(m.keys)))
	return styles.AppStyle.Render(b.String())
}

// Close unsubscribes from the controller. Idempotent through the
// controller's own unsubscribe guarantee.
func (m *Model) Close() {
	m.unsub()
}

func statusLine(v playback.Value, spinnerView string) string {
	var parts []string
	switch {
	case v.IsBuffering:
		parts = append(parts, spinnerView+" "+styles.StatusStyle.Render("buffering"))
	case v.IsPlaying:
		parts = append(parts, styles.StatusStyle.Render("▶ playing"))
	default:
		parts = append(parts, styles.StatusStyle.Render("⏸ paused"))
	}
	parts = append(parts, fmt.Sprintf("vol %d%%", int(v.Volume*100+0.5)))
	if v.PlaybackSpeed != 1.0 {
		parts = append(parts, fmt.Sprintf("%.2gx", v.PlaybackSpeed))
	}
	if v.IsLooping {
		parts = append(parts, styles.BadgeStyle.Render("loop"))
	}
	if v.IsShowingPIP {
		parts = append(parts, styles.BadgeStyle.Render("pip"))
	}
	return strings.Join(parts, "  ")
}

func helpLine(k keyMap) string {
	bindings := []key.Binding{
		k.Toggle, k.SeekBack, k.SeekFwd, k.VolUp, k.VolDown,
		k.SpeedDown, k.SpeedUp, k.Loop, k.PIP, k.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

func formatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// truncate shortens a string to the given display width, accounting
// for wide runes.
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
