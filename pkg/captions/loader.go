package captions

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/justchokingaround/playkit/pkg/playback"
)

// FileLoader loads a caption file from the local filesystem. It
// implements playback.CaptionLoader.
type FileLoader struct {
	path string
}

// NewFileLoader returns a loader for the given .srt or .vtt path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and parses the file. The playback controller calls this
// at most once per session.
func (l *FileLoader) Load(_ context.Context) ([]playback.Caption, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	return Parse(data)
}

// NetworkLoader fetches a caption file over HTTP. It implements
// playback.CaptionLoader.
type NetworkLoader struct {
	url    string
	client *resty.Client
}

// NetworkOption configures a NetworkLoader.
type NetworkOption func(*NetworkLoader)

// WithClient substitutes the HTTP client, mainly for tests.
func WithClient(client *resty.Client) NetworkOption {
	return func(l *NetworkLoader) { l.client = client }
}

// NewNetworkLoader returns a loader that fetches url on first use.
func NewNetworkLoader(url string, opts ...NetworkOption) *NetworkLoader {
	l := &NetworkLoader{
		url: url,
		client: resty.New().
			SetTimeout(15 * time.Second).
			SetRetryCount(2),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and parses the caption file.
func (l *NetworkLoader) Load(ctx context.Context) ([]playback.Caption, error) {
	resp, err := l.client.R().SetContext(ctx).Get(l.url)
	if err != nil {
		return nil, fmt.Errorf("fetch captions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch captions: %s returned %s", l.url, resp.Status())
	}
	return Parse(resp.Body())
}

// Static wraps an in-memory caption table in the loader interface,
// useful when captions come from somewhere other than a file.
type Static []playback.Caption

// Load returns the table as-is.
func (s Static) Load(_ context.Context) ([]playback.Caption, error) {
	return []playback.Caption(s), nil
}
