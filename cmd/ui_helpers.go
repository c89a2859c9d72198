package cmd

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	"marketplace/cli/internal/backend"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// spinner is an inline single-line animation whose text can change while it
// runs.
type spinner struct {
	w        io.Writer
	frames   []string
	interval time.Duration

	mu   sync.Mutex
	text string

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// startInlineSpinner starts a spinner on the current line. The returned
// spinner must be stopped; stopping clears the line.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) *spinner {
	s := &spinner{w: w, frames: frames, interval: interval, text: text, stop: make(chan struct{})}
	cursor.Hide()
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *spinner) run() {
	defer s.wg.Done()
	i := 0
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			cursor.StartOfLine()
			cursor.ClearLine()
			return
		case <-ticker.C:
			s.mu.Lock()
			line := fmt.Sprintf("%s %s", s.frames[i%len(s.frames)], s.text)
			s.mu.Unlock()
			cursor.StartOfLine()
			cursor.ClearLine()
			fmt.Fprint(s.w, line)
			i++
		}
	}
}

// SetText replaces the text shown after the animation.
func (s *spinner) SetText(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

// Stop ends the animation and clears the line. It is safe to call twice.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
		cursor.Show()
	})
}

func printNotLoggedIn() {
	fmt.Println("🔒 You're not logged in yet!")
	fmt.Println("   Run 'marketplace login' to get started.")
}

func printWhoAmI(p *backend.Profile) {
	fmt.Printf("👤 Current user: %s\n", p.DisplayName())
}

func printProfile(p *backend.Profile) {
	roles := "none (onboarding required)"
	if p.HasRoles() {
		roles = fmt.Sprint(p.Roles)
	}
	data := pterm.TableData{
		{"ID", string(p.ID)},
		{"Email", p.Email},
		{"Name", p.Name},
		{"Roles", roles},
	}
	if p.Phone != "" {
		data = append(data, []string{"Phone", p.Phone})
	}
	keys := make([]string, 0, len(p.Usage))
	for k := range p.Usage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		data = append(data, []string{"Usage: " + k, fmt.Sprint(p.Usage[k])})
	}
	_ = pterm.DefaultTable.WithData(data).Render()
}
