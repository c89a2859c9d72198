// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"marketplace/cli/internal/webauth"
)

// View is a browser page driven over DevTools. It satisfies webauth.WebView.
type View struct {
	conn    *Conn
	browser *Browser
	binding string

	events    chan webauth.Event
	closeOnce sync.Once
	stop      chan struct{}
	wg        sync.WaitGroup
}

var _ webauth.WebView = (*View)(nil)

// Open launches a browser, opens a page and attaches to it.
func Open(ctx context.Context, opts LaunchOptions, binding string) (*View, error) {
	b, err := Launch(ctx, opts)
	if err != nil {
		return nil, err
	}
	ws, err := b.NewPage(ctx)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	v, err := Attach(ctx, ws, binding)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	v.browser = b
	return v, nil
}

// Attach connects to an existing page endpoint and exposes binding to page
// script as a message channel.
func Attach(ctx context.Context, pageWS, binding string) (*View, error) {
	conn, err := Dial(ctx, pageWS)
	if err != nil {
		return nil, err
	}
	v := &View{
		conn:    conn,
		binding: binding,
		events:  make(chan webauth.Event, 32),
		stop:    make(chan struct{}),
	}
	for _, m := range []string{"Page.enable", "Runtime.enable"} {
		if err := conn.Call(ctx, m, nil, nil); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	if err := conn.Call(ctx, "Runtime.addBinding", map[string]string{"name": binding}, nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	v.wg.Add(1)
	go v.pump()
	return v, nil
}

// Navigate loads url in the page.
func (v *View) Navigate(ctx context.Context, url string) error {
	var res struct {
		ErrorText string `json:"errorText"`
	}
	if err := v.conn.Call(ctx, "Page.navigate", map[string]string{"url": url}, &res); err != nil {
		return err
	}
	if res.ErrorText != "" {
		return fmt.Errorf("navigate %s: %s", url, res.ErrorText)
	}
	return nil
}

// Inject evaluates script in the current page.
func (v *View) Inject(ctx context.Context, script string) error {
	var res struct {
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	params := map[string]any{"expression": script, "awaitPromise": false}
	if err := v.conn.Call(ctx, "Runtime.evaluate", params, &res); err != nil {
		return err
	}
	if res.ExceptionDetails != nil {
		return fmt.Errorf("script raised: %s", res.ExceptionDetails.Text)
	}
	return nil
}

// Events reports top-frame navigations, binding messages, and page closure.
func (v *View) Events() <-chan webauth.Event { return v.events }

// Close detaches and stops the browser if this view launched it.
func (v *View) Close() error {
	var err error
	v.closeOnce.Do(func() {
		close(v.stop)
		err = v.conn.Close()
		v.wg.Wait()
		if v.browser != nil {
			_ = v.browser.Close()
		}
	})
	return err
}

type frameNavigated struct {
	Frame struct {
		ID       string `json:"id"`
		ParentID string `json:"parentId"`
		URL      string `json:"url"`
	} `json:"frame"`
}

type bindingCalled struct {
	Name    string `json:"name"`
	Payload string `json:"payload"`
}

func (v *View) pump() {
	defer v.wg.Done()
	defer close(v.events)
	for m := range v.conn.Events() {
		ev, ok := translate(m, v.binding)
		if !ok {
			continue
		}
		select {
		case v.events <- ev:
		case <-v.stop:
			return
		}
		if ev.Kind == webauth.EventClosed {
			return
		}
	}
	// Connection went away without an explicit detach.
	select {
	case v.events <- webauth.Event{Kind: webauth.EventClosed}:
	case <-v.stop:
	}
}

func translate(m Message, binding string) (webauth.Event, bool) {
	switch m.Method {
	case "Page.frameNavigated":
		var p frameNavigated
		if json.Unmarshal(m.Params, &p) != nil || p.Frame.ParentID != "" {
			return webauth.Event{}, false
		}
		return webauth.Event{Kind: webauth.EventNavigation, URL: p.Frame.URL}, true
	case "Runtime.bindingCalled":
		var p bindingCalled
		if json.Unmarshal(m.Params, &p) != nil || p.Name != binding {
			return webauth.Event{}, false
		}
		return webauth.Event{Kind: webauth.EventMessage, Message: p.Payload}, true
	case "Inspector.detached", "Inspector.targetCrashed":
		return webauth.Event{Kind: webauth.EventClosed}, true
	}
	return webauth.Event{}, false
}

func deadlineSoon() time.Time { return time.Now().Add(time.Second) }
