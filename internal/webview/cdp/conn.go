// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cdp drives a Chromium-family browser over the DevTools protocol and
// exposes a page as a webauth.WebView.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"marketplace/cli/internal/logging"
)

// ErrClosed is returned by calls made after the connection went away.
var ErrClosed = errors.New("devtools connection closed")

// Message is a protocol event pushed by the browser.
type Message struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type wireMessage struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RemoteError    `json:"error,omitempty"`
}

// RemoteError is an error reply to a protocol call.
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("devtools error %d: %s", e.Code, e.Message)
}

// Conn is a DevTools protocol session on one websocket.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan wireMessage
	closed  bool

	events    chan Message
	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to a DevTools websocket endpoint.
func Dial(ctx context.Context, wsURL string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial devtools: %w", err)
	}
	c := &Conn{
		ws:      ws,
		pending: make(map[int64]chan wireMessage),
		events:  make(chan Message, 64),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Events delivers protocol events until the connection closes.
func (c *Conn) Events() <-chan Message { return c.events }

// Done is closed once the read loop exits.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Call sends method with params and decodes the reply into result, which may
// be nil.
func (c *Conn) Call(ctx context.Context, method string, params, result any) error {
	id := c.nextID.Add(1)
	msg := wireMessage{ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode %s params: %w", method, err)
		}
		msg.Params = raw
	}

	reply := make(chan wireMessage, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending[id] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.ws.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	case r := <-reply:
		if r.Error != nil {
			return fmt.Errorf("%s: %w", method, r.Error)
		}
		if result != nil && len(r.Result) > 0 {
			if err := json.Unmarshal(r.Result, result); err != nil {
				return fmt.Errorf("decode %s result: %w", method, err)
			}
		}
		return nil
	}
}

// Close shuts the websocket; pending calls fail with ErrClosed.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closing) })
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadlineSoon())
	c.writeMu.Unlock()
	err := c.ws.Close()
	<-c.done
	return err
}

func (c *Conn) readLoop() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.events)
		close(c.done)
	}()
	for {
		var m wireMessage
		if err := c.ws.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("cdp", "read loop ended", map[string]any{"error": err.Error()})
			}
			return
		}
		if m.ID != 0 {
			c.mu.Lock()
			ch, ok := c.pending[m.ID]
			c.mu.Unlock()
			if ok {
				ch <- m
			}
			continue
		}
		if m.Method != "" {
			select {
			case c.events <- Message{Method: m.Method, Params: m.Params}:
			case <-c.closing:
				return
			}
		}
	}
}
