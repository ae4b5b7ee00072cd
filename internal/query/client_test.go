package query

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startBackend runs a scripted one-shot backend on a unix socket.
// handle receives each decoded request and writes response lines.
func startBackend(t *testing.T, handle func(req wireRequest, enc *json.Encoder)) string {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "backend.sock")
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer func() { _ = conn.Close() }()
				scanner := bufio.NewScanner(conn)
				if !scanner.Scan() {
					return
				}
				var req wireRequest
				if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
					return
				}
				handle(req, json.NewEncoder(conn))
			}(conn)
		}
	}()

	return socket
}

func TestClientCapabilities(t *testing.T) {
	socket := startBackend(t, func(req wireRequest, enc *json.Encoder) {
		require.Equal(t, opCapabilities, req.Op)
		_ = enc.Encode(wireEvent{Event: "capabilities", Capabilities: []string{"search-files", "get-files"}})
	})

	c := NewClient(ClientConfig{SocketPath: socket})
	caps := c.Capabilities()
	assert.True(t, caps.Has(CapSearchFiles))
	assert.True(t, caps.Has(CapGetFiles))
}

func TestClientCapabilitiesUnreachableBackend(t *testing.T) {
	c := NewClient(ClientConfig{
		SocketPath:  filepath.Join(t.TempDir(), "missing.sock"),
		DialTimeout: 100 * time.Millisecond,
	})
	assert.Equal(t, Capability(0), c.Capabilities())
}

func TestClientSearchFiles(t *testing.T) {
	socket := startBackend(t, func(req wireRequest, enc *json.Encoder) {
		require.Equal(t, opSearchFiles, req.Op)
		require.True(t, req.InstalledOnly)
		require.Equal(t, []string{"/a.desktop"}, req.Paths)

		_ = enc.Encode(wireEvent{Event: "match", PackageID: "gedit;3.0;x86_64;installed"})
		_ = enc.Encode(wireEvent{Event: "finished", Status: "success"})
	})

	c := NewClient(ClientConfig{SocketPath: socket})
	events, err := c.SearchFiles(context.Background(), true, []string{"/a.desktop"})
	require.NoError(t, err)

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, KindMatch, got[0].Kind)
	assert.Equal(t, "gedit", got[0].Package.Name)
	assert.Equal(t, KindFinished, got[1].Kind)
	assert.Equal(t, StatusSuccess, got[1].Status)
}

func TestClientGetFiles(t *testing.T) {
	socket := startBackend(t, func(req wireRequest, enc *json.Encoder) {
		require.Equal(t, opGetFiles, req.Op)
		require.Equal(t, []string{"gedit;3.0;x86_64;installed"}, req.PackageIDs)

		_ = enc.Encode(wireEvent{Event: "files", PackageID: "gedit;3.0;x86_64;installed",
			Paths: []string{"/usr/share/applications/gedit.desktop"}})
		_ = enc.Encode(wireEvent{Event: "finished", Status: "success"})
	})

	c := NewClient(ClientConfig{SocketPath: socket})
	events, err := c.GetFiles(context.Background(), []string{"gedit;3.0;x86_64;installed"})
	require.NoError(t, err)

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, KindFiles, got[0].Kind)
	assert.Equal(t, []string{"/usr/share/applications/gedit.desktop"}, got[0].Paths)
}

func TestClientSyntheticFinishedOnTruncatedStream(t *testing.T) {
	socket := startBackend(t, func(req wireRequest, enc *json.Encoder) {
		// One match, then the backend dies without a terminal event.
		_ = enc.Encode(wireEvent{Event: "match", PackageID: "gedit;;;"})
	})

	c := NewClient(ClientConfig{SocketPath: socket})
	events, err := c.SearchFiles(context.Background(), true, []string{"/a.desktop"})
	require.NoError(t, err)

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, KindFinished, last.Kind)
	assert.Equal(t, StatusFailed, last.Status)
}

func TestClientIgnoresUnknownAndMalformedEvents(t *testing.T) {
	socket := startBackend(t, func(req wireRequest, enc *json.Encoder) {
		_ = enc.Encode(map[string]string{"event": "telemetry"})
		_ = enc.Encode(wireEvent{Event: "match", PackageID: "vim;9.0;x86_64;installed"})
		_ = enc.Encode(wireEvent{Event: "finished", Status: "success"})
	})

	c := NewClient(ClientConfig{SocketPath: socket})
	events, err := c.SearchFiles(context.Background(), true, []string{"/b.desktop"})
	require.NoError(t, err)

	var kinds []Kind
	for ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []Kind{KindMatch, KindFinished}, kinds)
}

func TestClientDialFailure(t *testing.T) {
	c := NewClient(ClientConfig{
		SocketPath:  filepath.Join(t.TempDir(), "missing.sock"),
		DialTimeout: 100 * time.Millisecond,
	})
	_, err := c.SearchFiles(context.Background(), true, []string{"/a.desktop"})
	assert.Error(t, err)
}
