package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quill/internal/logging"
	"quill/internal/types"
)

// Events opens the session's SSE stream and decodes data frames into
// ChatEvents. The channel closes when the stream ends; cancel tears the
// connection down. Delivery is in-order per connection, but the daemon
// makes no ordering promise across event kinds; that is the reconciler's
// problem, not the transport's.
func (c *Client) Events(ctx context.Context, sessionID string, logger logging.Logger) (<-chan types.ChatEvent, func(), error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if err := c.ensureToken(); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	url := fmt.Sprintf("%s/v1/sessions/%s/events?follow=1", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "text/event-stream")

	// The shared client carries a request timeout; streams must outlive it.
	httpClient := &http.Client{}
	resp, err := httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, nil, decodeAPIError(resp)
	}

	ch := make(chan types.ChatEvent, 256)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		start := time.Now()
		count := 0
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var dataLines []string

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if len(dataLines) == 0 {
					continue
				}
				payload := strings.Join(dataLines, "\n")
				dataLines = dataLines[:0]
				var event types.ChatEvent
				if err := json.Unmarshal([]byte(payload), &event); err != nil {
					logger.Warn("dropping undecodable stream frame", logging.F("err", err))
					continue
				}
				select {
				case ch <- event:
				case <-ctx.Done():
					return
				}
				count++
				if count == 1 {
					logger.Debug("event stream first frame",
						logging.F("session_id", sessionID),
						logging.F("type", string(event.Type)))
				}
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Debug("event stream scan error",
				logging.F("session_id", sessionID),
				logging.F("err", err))
		}
		logger.Debug("event stream closed",
			logging.F("session_id", sessionID),
			logging.F("count", count),
			logging.F("dur", time.Since(start)))
	}()

	return ch, cancel, nil
}
