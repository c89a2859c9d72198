// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cdp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"marketplace/cli/internal/logging"
)

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	// Path to the browser binary. Empty means search the usual locations.
	Path string
	// ProfileDir keeps cookies between runs. Required.
	ProfileDir string
	Headless   bool
	// StartTimeout bounds how long to wait for the DevTools endpoint.
	StartTimeout time.Duration
}

// Browser is a running browser process with DevTools enabled.
type Browser struct {
	cmd      *exec.Cmd
	httpBase string
	waitErr  chan error
}

const devtoolsLine = "DevTools listening on "

// Launch starts the browser and waits for its DevTools endpoint.
func Launch(ctx context.Context, opts LaunchOptions) (*Browser, error) {
	path := opts.Path
	if path == "" {
		var err error
		if path, err = FindBrowser(); err != nil {
			return nil, err
		}
	}
	if opts.ProfileDir == "" {
		return nil, errors.New("browser profile directory is required")
	}
	if err := os.MkdirAll(opts.ProfileDir, 0o700); err != nil {
		return nil, fmt.Errorf("create browser profile: %w", err)
	}

	args := []string{
		"--remote-debugging-port=0",
		"--user-data-dir=" + opts.ProfileDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-extensions",
		"--new-window",
		"about:blank",
	}
	if opts.Headless {
		args = append([]string{"--headless=new"}, args...)
	}

	cmd := exec.Command(path, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	logging.Debug("cdp", "browser started", map[string]any{"path": path, "pid": cmd.Process.Pid})

	timeout := opts.StartTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	found := make(chan string, 1)
	go scanDevtools(stderr, found)

	b := &Browser{cmd: cmd, waitErr: make(chan error, 1)}
	go func() { b.waitErr <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = b.Close()
		return nil, ctx.Err()
	case <-time.After(timeout):
		_ = b.Close()
		return nil, errors.New("browser did not expose a devtools endpoint in time")
	case err := <-b.waitErr:
		return nil, fmt.Errorf("browser exited early: %v", err)
	case ws := <-found:
		base, err := httpBaseFromWS(ws)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.httpBase = base
		return b, nil
	}
}

func scanDevtools(r io.Reader, found chan<- string) {
	sc := bufio.NewScanner(r)
	sent := false
	for sc.Scan() {
		line := sc.Text()
		if !sent {
			if i := strings.Index(line, devtoolsLine); i >= 0 {
				found <- strings.TrimSpace(line[i+len(devtoolsLine):])
				sent = true
			}
		}
	}
}

func httpBaseFromWS(ws string) (string, error) {
	u, err := url.Parse(ws)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("unexpected devtools endpoint %q", ws)
	}
	return "http://" + u.Host, nil
}

type targetInfo struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// NewPage opens a fresh tab and returns its websocket endpoint.
func (b *Browser) NewPage(ctx context.Context) (string, error) {
	return newPage(ctx, http.DefaultClient, b.httpBase)
}

func newPage(ctx context.Context, client *http.Client, httpBase string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, httpBase+"/json/new?about:blank", nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("open page: status %d", resp.StatusCode)
	}
	var t targetInfo
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return "", fmt.Errorf("decode page target: %w", err)
	}
	if t.WebSocketDebuggerURL == "" {
		return "", errors.New("page target has no websocket endpoint")
	}
	return t.WebSocketDebuggerURL, nil
}

// Close terminates the browser process.
func (b *Browser) Close() error {
	if b.cmd.Process == nil {
		return nil
	}
	_ = b.cmd.Process.Kill()
	select {
	case <-b.waitErr:
	case <-time.After(5 * time.Second):
	}
	return nil
}

// FindBrowser looks for a Chromium-family browser in the usual places.
func FindBrowser() (string, error) {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
			"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
		}
	case "windows":
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)", "LocalAppData"} {
			root := os.Getenv(env)
			if root == "" {
				continue
			}
			candidates = append(candidates,
				root+`\Google\Chrome\Application\chrome.exe`,
				root+`\Microsoft\Edge\Application\msedge.exe`,
			)
		}
	default:
		for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "microsoft-edge", "brave-browser"} {
			if p, err := exec.LookPath(name); err == nil {
				return p, nil
			}
		}
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", errors.New("no Chromium-based browser found; set browser.path in the config or MARKETPLACE_BROWSER")
}
