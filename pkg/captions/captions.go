// Package captions loads closed-caption files for playback
// controllers. It understands SubRip (.srt) and WebVTT (.vtt) and
// produces the time-ranged caption table the playback package
// consumes.
package captions

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/justchokingaround/playkit/pkg/playback"
)

// Parse sniffs the format and parses data into a caption table.
// Content starting with a WEBVTT header is parsed as WebVTT,
// everything else as SubRip.
func Parse(data []byte) ([]playback.Caption, error) {
	trimmed := bytes.TrimPrefix(bytes.TrimSpace(data), []byte("\uFEFF"))
	if bytes.HasPrefix(trimmed, []byte("WEBVTT")) {
		return ParseWebVTT(data)
	}
	return ParseSRT(data)
}

// parseTimestamp parses an SRT or WebVTT timestamp:
// "hh:mm:ss,mmm", "hh:mm:ss.mmm", or the WebVTT short form
// "mm:ss.mmm".
func parseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	normalized := strings.Replace(s, ",", ".", 1)

	parts := strings.Split(normalized, ":")
	var hours, minutes int
	var secPart string
	switch len(parts) {
	case 3:
		h, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("bad hours in %q", s)
		}
		hours = h
		m, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("bad minutes in %q", s)
		}
		minutes = m
		secPart = parts[2]
	case 2:
		m, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("bad minutes in %q", s)
		}
		minutes = m
		secPart = parts[1]
	default:
		return 0, fmt.Errorf("bad timestamp %q", s)
	}

	seconds, err := strconv.ParseFloat(secPart, 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("bad seconds in %q", s)
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	return d, nil
}

// splitTiming splits a "start --> end" line, tolerating WebVTT cue
// settings after the end timestamp.
func splitTiming(line string) (start, end time.Duration, err error) {
	left, right, found := strings.Cut(line, "-->")
	if !found {
		return 0, 0, fmt.Errorf("missing --> in timing line %q", line)
	}
	start, err = parseTimestamp(left)
	if err != nil {
		return 0, 0, err
	}
	endField := strings.Fields(strings.TrimSpace(right))
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp in %q", line)
	}
	end, err = parseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func normalizeLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\uFEFF")
	return strings.Split(text, "\n")
}
