package captions

import (
	"fmt"
	"strings"

	"github.com/justchokingaround/playkit/pkg/playback"
)

// ParseWebVTT parses a WebVTT file. Cue identifiers and cue settings
// are accepted and discarded; NOTE, STYLE, and REGION blocks are
// skipped. Cues come back in file order.
func ParseWebVTT(data []byte) ([]playback.Caption, error) {
	lines := normalizeLines(data)
	if len(lines) == 0 || !strings.HasPrefix(strings.TrimSpace(lines[0]), "WEBVTT") {
		return nil, fmt.Errorf("webvtt: missing WEBVTT header")
	}

	var table []playback.Caption
	i := 1
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}

		// Skip non-cue blocks entirely.
		if strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") || strings.HasPrefix(line, "REGION") {
			for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
				i++
			}
			continue
		}

		// A cue may open with an identifier line before the timing.
		if !strings.Contains(line, "-->") {
			i++
			if i >= len(lines) || !strings.Contains(lines[i], "-->") {
				return nil, fmt.Errorf("webvtt: cue identifier without timing at line %d", i)
			}
		}

		start, end, err := splitTiming(lines[i])
		if err != nil {
			return nil, fmt.Errorf("webvtt: line %d: %w", i+1, err)
		}
		i++

		var text []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			text = append(text, strings.TrimRight(lines[i], "\r"))
			i++
		}

		table = append(table, playback.Caption{
			Start: start,
			End:   end,
			Text:  strings.Join(text, "\n"),
		})
	}
	return table, nil
}
