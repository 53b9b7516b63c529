// Package feed loads batches of raw events for bulk import.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"devevent/internal/domain"
)

// maxFeedBytes caps how much of a remote feed is read.
const maxFeedBytes = 8 << 20

type format int

const (
	formatJSON format = iota
	formatYAML
)

type httpFeed struct {
	client *http.Client
}

// NewHTTPFeed returns a feed that GETs a JSON or YAML event list from a URL.
func NewHTTPFeed(client *http.Client) domain.EventFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpFeed{client: client}
}

func (f *httpFeed) Fetch(ctx context.Context, url string) ([]*domain.RawEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	return decode(body, formatFromResponse(resp, url))
}

func formatFromResponse(resp *http.Response, url string) format {
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && strings.Contains(mt, "yaml") {
		return formatYAML
	}
	return formatFromName(url)
}

type fileFeed struct{}

// NewFileFeed returns a feed that reads a local .json, .yaml or .yml file.
func NewFileFeed() domain.EventFeed {
	return fileFeed{}
}

func (fileFeed) Fetch(ctx context.Context, path string) ([]*domain.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed file: %w", err)
	}
	return decode(body, formatFromName(path))
}

func formatFromName(name string) format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return formatYAML
	}
	return formatJSON
}

// decode accepts either a bare list of events or an object with an "events" list.
func decode(body []byte, f format) ([]*domain.RawEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []*domain.RawEvent{}, nil
	}

	var events []*domain.RawEvent
	var wrapped struct {
		Events []*domain.RawEvent `json:"events" yaml:"events"`
	}
	switch f {
	case formatYAML:
		if err := yaml.Unmarshal(body, &events); err != nil {
			if werr := yaml.Unmarshal(body, &wrapped); werr != nil {
				return nil, fmt.Errorf("decode yaml feed: %w", err)
			}
			events = wrapped.Events
		}
	default:
		if body[0] == '{' {
			if err := json.Unmarshal(body, &wrapped); err != nil {
				return nil, fmt.Errorf("decode json feed: %w", err)
			}
			events = wrapped.Events
		} else if err := json.Unmarshal(body, &events); err != nil {
			return nil, fmt.Errorf("decode json feed: %w", err)
		}
	}

	out := make([]*domain.RawEvent, 0, len(events))
	for _, e := range events {
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// ReadEvent decodes a single raw event from r. name selects the format the
// same way file feeds do; "-" or an unknown extension means JSON.
func ReadEvent(r io.Reader, name string) (*domain.RawEvent, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	var raw domain.RawEvent
	if formatFromName(name) == formatYAML {
		err = yaml.Unmarshal(body, &raw)
	} else {
		err = json.Unmarshal(body, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &raw, nil
}
