// Package client provides a client for the lumend daemon. It wraps
// the HTTP-over-Unix-socket API with typed methods and handles daemon
// lifecycle (auto-start, stop) for the CLI.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lumenapp/lumen/pkg/api"
	"github.com/lumenapp/lumen/pkg/daemon"
	"github.com/lumenapp/lumen/pkg/lumen/config"
)

// Client talks to the lumend daemon.
type Client struct {
	http *http.Client
}

// Connect creates a client over the daemon socket. It fails when the
// socket does not exist.
func Connect(socketPath string) (*Client, error) {
	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("daemon socket not found at %s", socketPath)
	}

	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Close releases the client's connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://lumend"+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://lumend"+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr api.Error
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Status returns daemon and index health.
func (c *Client) Status(ctx context.Context) (*api.Status, error) {
	var status api.Status
	if err := c.get(ctx, "/v1/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Years returns the distinct creation years, newest first.
func (c *Client) Years(ctx context.Context) ([]int, error) {
	var resp api.YearsResponse
	if err := c.get(ctx, "/v1/years", &resp); err != nil {
		return nil, err
	}
	return resp.Years, nil
}

// Places returns the place grouping names.
func (c *Client) Places(ctx context.Context) ([]string, error) {
	var resp api.GroupsResponse
	if err := c.get(ctx, "/v1/places", &resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

// People returns the person grouping names.
func (c *Client) People(ctx context.Context) ([]string, error) {
	var resp api.GroupsResponse
	if err := c.get(ctx, "/v1/people", &resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

// TopForYear returns the highest scored assets for a year.
func (c *Client) TopForYear(ctx context.Context, year, limit int) ([]api.Item, error) {
	return c.top(ctx, url.Values{"year": {strconv.Itoa(year)}}, limit)
}

// TopForPlace returns the highest scored assets for a place.
func (c *Client) TopForPlace(ctx context.Context, name string, limit int) ([]api.Item, error) {
	return c.top(ctx, url.Values{"place": {name}}, limit)
}

// TopForPerson returns the highest scored assets for a person.
func (c *Client) TopForPerson(ctx context.Context, name string, limit int) ([]api.Item, error) {
	return c.top(ctx, url.Values{"person": {name}}, limit)
}

func (c *Client) top(ctx context.Context, q url.Values, limit int) ([]api.Item, error) {
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp api.TopResponse
	if err := c.get(ctx, "/v1/top?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// TriggerRebuild asks the daemon for a full rebuild. Returns false
// when a build was already in flight.
func (c *Client) TriggerRebuild(ctx context.Context) (bool, error) {
	var resp api.RebuildResponse
	if err := c.post(ctx, "/v1/rebuild", &resp); err != nil {
		return false, err
	}
	return resp.Started, nil
}

// Shutdown asks the daemon to exit gracefully.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.post(ctx, "/v1/shutdown", nil)
}

// DaemonPaths configures paths for daemon lifecycle operations.
// Empty fields use defaults.
type DaemonPaths struct {
	Binary string // Path to lumend binary (auto-discovered if empty)
	Socket string // Unix socket path
	PID    string // PID file path
}

// withDefaults returns a copy with empty fields filled with defaults.
func (p DaemonPaths) withDefaults() DaemonPaths {
	if p.Socket == "" {
		p.Socket = config.DefaultSocketPath()
	}
	if p.PID == "" {
		p.PID = config.DefaultPIDPath()
	}
	return p
}

// EnsureDaemon ensures the daemon is running, starting it if necessary.
// Idempotent: returns nil if daemon is already running.
func EnsureDaemon(paths DaemonPaths) error {
	return StartDaemon(paths)
}

// StartDaemon starts the lumend daemon in the background.
// Idempotent: returns nil if daemon is already running.
func StartDaemon(paths DaemonPaths) error {
	paths = paths.withDefaults()

	if daemon.IsDaemonRunning(paths.PID) {
		return nil
	}

	binary, err := resolveBinary(paths.Binary)
	if err != nil {
		return fmt.Errorf("find lumend: %w", err)
	}

	statusPath := strings.TrimSuffix(paths.Socket, ".sock") + ".status"
	_ = os.Remove(statusPath)

	// Use exec.Command (not CommandContext) intentionally: daemon must outlive caller
	cmd := exec.Command(binary) //nolint:gosec // binary path is validated
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if cmd.Process != nil {
		_ = cmd.Process.Release()
	}

	// Poll for socket OR status file
	for range 50 {
		time.Sleep(100 * time.Millisecond)

		if _, err := os.Stat(paths.Socket); err == nil {
			return nil
		}

		if sf, err := daemon.ReadStartup(statusPath); err == nil {
			switch sf.Status {
			case "ready":
				return nil
			case "error":
				return fmt.Errorf("daemon failed to start: %s", sf.Error)
			}
		}
	}

	return errors.New("daemon did not become ready within timeout")
}

// StopDaemon stops the daemon gracefully via the API.
// Idempotent: returns nil if daemon is not running.
func StopDaemon(paths DaemonPaths) error {
	paths = paths.withDefaults()

	if !daemon.IsDaemonRunning(paths.PID) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := Connect(paths.Socket)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer c.Close()

	if err := c.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown daemon: %w", err)
	}

	for range 20 {
		time.Sleep(250 * time.Millisecond)
		if !daemon.IsDaemonRunning(paths.PID) {
			return nil
		}
	}

	return errors.New("daemon did not stop within timeout")
}

// RestartDaemon stops and starts the daemon.
func RestartDaemon(paths DaemonPaths) error {
	if err := StopDaemon(paths); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	if err := StartDaemon(paths); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

// resolveBinary finds the lumend binary path.
// Priority: configured path > same directory as executable > PATH.
func resolveBinary(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("configured binary not found: %s", configured)
		}
		return configured, nil
	}

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "lumend")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath("lumend"); err == nil {
		return path, nil
	}

	return "", errors.New("lumend not found")
}
