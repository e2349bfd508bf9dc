package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"lexdesk/internal/logging"
	"lexdesk/internal/types"
)

const (
	changeBuffer = 64
	maxEventSize = 1 << 20
)

// ChangeStream follows /v1/events. Events are dropped when the consumer falls
// behind; the channel closes when the stream ends or the returned stop func
// is called.
func (c *Client) ChangeStream(ctx context.Context) (<-chan types.ChangeEvent, func(), error) {
	if err := c.ensureToken(); err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/events", nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient().Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, nil, decodeAPIError(resp)
	}

	logger := c.log().With(logging.F("stream", "changes"))
	logger.Debug("stream_open")
	ch := make(chan types.ChangeEvent, changeBuffer)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		received, dropped := 0, 0
		err := readEvents(resp.Body, func(data []byte) {
			var ev types.ChangeEvent
			if json.Unmarshal(data, &ev) != nil || ev.Collection == "" {
				return
			}
			received++
			select {
			case ch <- ev:
			default:
				dropped++
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("stream_error", logging.Err(err))
		}
		logger.Debug("stream_closed", logging.F("received", received), logging.F("dropped", dropped))
	}()
	return ch, cancel, nil
}

// streamClient is the configured client without its request timeout, which
// would otherwise cut the feed.
func (c *Client) streamClient() *http.Client {
	if c.http == nil {
		return http.DefaultClient
	}
	clone := *c.http
	clone.Timeout = 0
	return &clone
}

// readEvents calls fn with the joined data lines of each complete event in r.
// Comment lines are skipped and a trailing event without its blank line is
// dropped.
func readEvents(r io.Reader, fn func(data []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	var data bytes.Buffer
	pending := false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if pending {
				fn(data.Bytes())
			}
			data.Reset()
			pending = false
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			if pending {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(line[len("data:"):], " "))
			pending = true
		}
	}
	return scanner.Err()
}
