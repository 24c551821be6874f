// Package mpris exposes a playback controller on the session bus as
// an org.mpris.MediaPlayer2 player, so desktop media keys and applets
// can drive it.
package mpris

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/justchokingaround/playkit/pkg/playback"
)

const (
	busName       = "org.mpris.MediaPlayer2.playkit"
	objectPath    = "/org/mpris/MediaPlayer2"
	baseInterface = "org.mpris.MediaPlayer2"
	playerIface   = "org.mpris.MediaPlayer2.Player"
)

// Bridge connects one controller to the session bus.
type Bridge struct {
	conn       *dbus.Conn
	controller *playback.Controller
	props      *prop.Properties
	title      string
	log        *slog.Logger
	unsub      func()
}

// Register claims the MPRIS bus name and starts mirroring controller
// snapshots into the player properties.
func Register(c *playback.Controller, title string, log *slog.Logger) (*Bridge, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}

	b := &Bridge{conn: conn, controller: c, title: title, log: log}

	if err := conn.ExportAll(b, objectPath, playerIface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("exporting player methods: %w", err)
	}

	metadata := map[string]interface{}{
		"mpris:trackid": dbus.ObjectPath("/io/playkit/track/0"),
		"mpris:length":  int64(0),
		"xesam:title":   title,
	}

	propSpec := map[string]map[string]*prop.Prop{
		baseInterface: {
			"CanQuit":             {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"CanRaise":            {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"HasTrackList":        {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"Identity":            {Value: "playkit", Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"SupportedUriSchemes": {Value: []string{}, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"SupportedMimeTypes":  {Value: []string{}, Writable: false, Emit: prop.EmitFalse, Callback: nil},
		},
		playerIface: {
			"CanControl":     {Value: true, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"CanPlay":        {Value: true, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"CanPause":       {Value: true, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"CanSeek":        {Value: true, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"CanGoNext":      {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"CanGoPrevious":  {Value: false, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"Metadata":       {Value: metadata, Writable: false, Emit: prop.EmitTrue, Callback: nil},
			"PlaybackStatus": {Value: "Stopped", Writable: false, Emit: prop.EmitTrue, Callback: nil},
			"Position":       {Value: int64(0), Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"Rate":           {Value: 1.0, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"MinimumRate":    {Value: 0.25, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"MaximumRate":    {Value: 4.0, Writable: false, Emit: prop.EmitFalse, Callback: nil},
			"Volume": {Value: 1.0, Writable: true, Emit: prop.EmitTrue, Callback: func(ch *prop.Change) *dbus.Error {
				volume, ok := ch.Value.(float64)
				if !ok {
					return prop.ErrInvalidArg
				}
				if err := b.controller.SetVolume(context.Background(), volume); err != nil {
					b.log.Warn("mpris volume change failed", "error", err)
				}
				return nil
			}},
		},
	}

	props, err := prop.Export(conn, objectPath, propSpec)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("exporting properties: %w", err)
	}
	b.props = props

	node := &introspect.Node{
		Name: objectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       playerIface,
				Methods:    introspect.Methods(b),
				Properties: props.Introspection(playerIface),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), objectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("exporting introspection: %w", err)
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("requesting bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("bus name %s already owned", busName)
	}

	b.unsub = c.Subscribe(b.mirror)
	return b, nil
}

// statusFor maps a snapshot onto the three MPRIS playback states.
func statusFor(v playback.Value) string {
	switch {
	case v.HasError():
		return "Stopped"
	case v.IsPlaying:
		return "Playing"
	case v.Initialized:
		return "Paused"
	default:
		return "Stopped"
	}
}

// mirror pushes a controller snapshot into the exported properties.
func (b *Bridge) mirror(v playback.Value) {
	b.props.SetMust(playerIface, "PlaybackStatus", statusFor(v))
	b.props.SetMust(playerIface, "Position", v.Position.Microseconds())
	b.props.SetMust(playerIface, "Rate", v.PlaybackSpeed)

	if v.Initialized {
		b.props.SetMust(playerIface, "Metadata", map[string]interface{}{
			"mpris:trackid": dbus.ObjectPath("/io/playkit/track/0"),
			"mpris:length":  v.Duration.Microseconds(),
			"xesam:title":   b.title,
		})
	}
}

// Close releases the bus name and stops mirroring.
func (b *Bridge) Close() {
	if b.unsub != nil {
		b.unsub()
	}
	_, _ = b.conn.ReleaseName(busName)
	b.conn.Close()
}

// Play resumes playback. Part of org.mpris.MediaPlayer2.Player.
func (b *Bridge) Play() {
	if err := b.controller.Play(context.Background()); err != nil {
		b.log.Warn("mpris play failed", "error", err)
	}
}

// Pause suspends playback.
func (b *Bridge) Pause() {
	if err := b.controller.Pause(context.Background()); err != nil {
		b.log.Warn("mpris pause failed", "error", err)
	}
}

// PlayPause toggles between playing and paused.
func (b *Bridge) PlayPause() {
	if b.controller.Value().IsPlaying {
		b.Pause()
	} else {
		b.Play()
	}
}

// Stop pauses and rewinds to the start.
func (b *Bridge) Stop() {
	ctx := context.Background()
	if err := b.controller.Pause(ctx); err != nil {
		b.log.Warn("mpris stop failed", "error", err)
		return
	}
	if err := b.controller.SeekTo(ctx, 0); err != nil {
		b.log.Warn("mpris stop seek failed", "error", err)
	}
}

// Seek moves the position by a relative offset in microseconds.
func (b *Bridge) Seek(offset int64) {
	pos := b.controller.Value().Position + time.Duration(offset)*time.Microsecond
	if err := b.controller.SeekTo(context.Background(), pos); err != nil {
		b.log.Warn("mpris seek failed", "error", err)
	}
}

// SetPosition jumps to an absolute position in microseconds.
func (b *Bridge) SetPosition(_ dbus.ObjectPath, position int64) {
	pos := time.Duration(position) * time.Microsecond
	if err := b.controller.SeekTo(context.Background(), pos); err != nil {
		b.log.Warn("mpris set position failed", "error", err)
	}
}

// Next is part of the interface but a single-media player has no
// queue.
func (b *Bridge) Next() {}

// Previous is part of the interface but a single-media player has no
// queue.
func (b *Bridge) Previous() {}

// OpenUri is not supported.
func (b *Bridge) OpenUri(string) {}
