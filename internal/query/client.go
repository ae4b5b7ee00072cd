package query

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Wire operation names.
const (
	opCapabilities = "capabilities"
	opSearchFiles  = "search-files"
	opGetFiles     = "get-files"
)

// Wire capability names.
const (
	wireCapSearchFiles = "search-files"
	wireCapGetFiles    = "get-files"
)

// ClientConfig configures the backend connection.
type ClientConfig struct {
	// SocketPath is the unix socket of the package backend daemon.
	SocketPath string

	// DialTimeout bounds connection establishment (default: 5s).
	DialTimeout time.Duration
}

// Client implements Service over a unix socket speaking JSON Lines.
//
// Each query opens its own connection: one request object, then one
// response object per event, terminated by a finished event. Capability
// discovery happens once per process and is cached.
type Client struct {
	cfg ClientConfig

	capOnce sync.Once
	caps    Capability
}

var _ Service = (*Client)(nil)

// NewClient creates a Client for the given backend socket.
func NewClient(cfg ClientConfig) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	return &Client{cfg: cfg}
}

// wireRequest is one request line sent to the backend.
type wireRequest struct {
	Op            string   `json:"op"`
	InstalledOnly bool     `json:"installed_only,omitempty"`
	Paths         []string `json:"paths,omitempty"`
	PackageIDs    []string `json:"package_ids,omitempty"`
}

// wireEvent is one response line received from the backend.
type wireEvent struct {
	Event        string   `json:"event"`
	Capabilities []string `json:"capabilities,omitempty"`
	PackageID    string   `json:"package_id,omitempty"`
	Paths        []string `json:"paths,omitempty"`
	Status       string   `json:"status,omitempty"`
}

// Capabilities implements Service. An unreachable backend reports no
// capabilities, which short-circuits both workflows.
func (c *Client) Capabilities() Capability {
	c.capOnce.Do(func() {
		caps, err := c.fetchCapabilities()
		if err != nil {
			slog.Warn("failed to query backend capabilities",
				slog.String("socket", c.cfg.SocketPath),
				slog.String("error", err.Error()))
			return
		}
		c.caps = caps
	})
	return c.caps
}

// SearchFiles implements Service.
func (c *Client) SearchFiles(ctx context.Context, installedOnly bool, paths []string) (<-chan Event, error) {
	return c.stream(ctx, wireRequest{
		Op:            opSearchFiles,
		InstalledOnly: installedOnly,
		Paths:         paths,
	})
}

// GetFiles implements Service.
func (c *Client) GetFiles(ctx context.Context, packageIDs []string) (<-chan Event, error) {
	return c.stream(ctx, wireRequest{
		Op:         opGetFiles,
		PackageIDs: packageIDs,
	})
}

func (c *Client) fetchCapabilities() (Capability, error) {
	conn, err := c.dial()
	if err != nil {
		return 0, err
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetDeadline(time.Now().Add(c.cfg.DialTimeout))

	if err := json.NewEncoder(conn).Encode(wireRequest{Op: opCapabilities}); err != nil {
		return 0, fmt.Errorf("failed to send capabilities request: %w", err)
	}

	var resp wireEvent
	if err := json.NewDecoder(bufio.NewReader(conn)).Decode(&resp); err != nil {
		return 0, fmt.Errorf("failed to read capabilities response: %w", err)
	}

	var caps Capability
	for _, name := range resp.Capabilities {
		switch name {
		case wireCapSearchFiles:
			caps |= CapSearchFiles
		case wireCapGetFiles:
			caps |= CapGetFiles
		}
	}
	return caps, nil
}

// stream opens a connection, sends req, and pumps response lines into an
// event channel. The channel closes after the terminal event, a transport
// error, or ctx cancellation; a transport error surfaces as a synthetic
// failed finished event so callers see a terminal outcome either way.
func (c *Client) stream(ctx context.Context, req wireRequest) (<-chan Event, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to send %s request: %w", req.Op, err)
	}

	events := make(chan Event, 16)

	// Unblock the reader when ctx is cancelled.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(events)
		defer close(done)
		defer func() { _ = conn.Close() }()

		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

		for scanner.Scan() {
			var wire wireEvent
			if err := json.Unmarshal(scanner.Bytes(), &wire); err != nil {
				slog.Warn("malformed event from backend", slog.String("error", err.Error()))
				continue
			}

			ev, terminal, ok := decodeEvent(wire)
			if !ok {
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
			if terminal {
				return
			}
		}

		// Stream ended without a finished event.
		if err := scanner.Err(); err != nil {
			slog.Warn("backend stream failed", slog.String("error", err.Error()))
		}
		select {
		case events <- Event{Kind: KindFinished, Status: StatusFailed}:
		case <-ctx.Done():
		}
	}()

	return events, nil
}

func decodeEvent(wire wireEvent) (ev Event, terminal, ok bool) {
	switch wire.Event {
	case "match":
		pkg, err := ParsePackageID(wire.PackageID)
		if err != nil {
			slog.Warn("match event with invalid package id",
				slog.String("package_id", wire.PackageID))
			return Event{}, false, false
		}
		return Event{Kind: KindMatch, Package: pkg}, false, true
	case "files":
		return Event{Kind: KindFiles, PackageID: wire.PackageID, Paths: wire.Paths}, false, true
	case "finished":
		status := Status(wire.Status)
		if status == "" {
			status = StatusFailed
		}
		return Event{Kind: KindFinished, Status: status}, true, true
	default:
		slog.Debug("ignoring unknown backend event", slog.String("event", wire.Event))
		return Event{}, false, false
	}
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.cfg.SocketPath, c.cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to backend: %w", err)
	}
	return conn, nil
}
