package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNoLeader is returned when the registry has no live leader.
var ErrNoLeader = errors.New("no leader available")

// Client talks to a Registry over HTTP.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query mandi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && path == "/leader" {
		return ErrNoLeader
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Leader returns the currently announced leader.
func (c *Client) Leader(ctx context.Context) (*LeaderInfo, error) {
	var info LeaderInfo
	if err := c.do(ctx, http.MethodGet, "/leader", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AnnounceLeader records info as the current leader.
func (c *Client) AnnounceLeader(ctx context.Context, info LeaderInfo) error {
	return c.do(ctx, http.MethodPut, "/leader", info, nil)
}

// RequestJoin asks the leader (through the registry) to add this node.
func (c *Client) RequestJoin(ctx context.Context, jr JoinRequest) error {
	return c.do(ctx, http.MethodPost, "/join-requests", jr, nil)
}

// JoinRequests lists pending join requests.
func (c *Client) JoinRequests(ctx context.Context) ([]JoinRequest, error) {
	var list []JoinRequest
	if err := c.do(ctx, http.MethodGet, "/join-requests", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteJoinRequest removes a handled join request.
func (c *Client) DeleteJoinRequest(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/join-requests?id="+url.QueryEscape(id), nil, nil)
}
