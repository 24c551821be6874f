package captions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/justchokingaround/playkit/pkg/playback"
)

// ParseSRT parses a SubRip file. Cues come back in file order; the
// controller relies on that order for lookups, so no sorting happens
// here.
func ParseSRT(data []byte) ([]playback.Caption, error) {
	lines := normalizeLines(data)

	var table []playback.Caption
	i := 0
	for i < len(lines) {
		// Skip blank separators.
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i >= len(lines) {
			break
		}

		// Optional numeric index line.
		if _, err := strconv.Atoi(strings.TrimSpace(lines[i])); err == nil {
			i++
			if i >= len(lines) {
				return nil, fmt.Errorf("srt: cue index without timing at line %d", i)
			}
		}

		start, end, err := splitTiming(lines[i])
		if err != nil {
			return nil, fmt.Errorf("srt: line %d: %w", i+1, err)
		}
		i++

		var text []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			text = append(text, strings.TrimRight(lines[i], "\r"))
			i++
		}
		if len(text) == 0 {
			return nil, fmt.Errorf("srt: cue ending at line %d has no text", i)
		}

		table = append(table, playback.Caption{
			Start: start,
			End:   end,
			Text:  strings.Join(text, "\n"),
		})
	}
	return table, nil
}
