// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"

	"marketplace/cli/internal/auth"
	"marketplace/cli/internal/backend"
	autherrors "marketplace/cli/internal/errors"
	"marketplace/cli/internal/logging"
	"marketplace/cli/internal/terminal"
	"marketplace/cli/internal/webauth"
	"marketplace/cli/internal/webview/cdp"
)

// onboardingRoles are offered to accounts that have none yet.
var onboardingRoles = []string{"customer", "vendor"}

// terminalNavigator renders the controller's destinations in the terminal.
// The login destination runs the embedded-browser flow.
type terminalNavigator struct {
	app *app
	// loginErr is the outcome of the last ShowLogin.
	loginErr error
	// noLogin reports a login request instead of opening the browser, for
	// commands that only route.
	noLogin bool
}

var _ auth.Navigator = (*terminalNavigator)(nil)

func (n *terminalNavigator) ShowLogin(ctx context.Context) {
	if n.noLogin {
		printNotLoggedIn()
		return
	}
	p, err := runEmbeddedLogin(ctx, n.app)
	n.loginErr = err
	if err != nil {
		return
	}
	if !p.HasRoles() {
		n.ShowOnboarding(ctx, p)
		return
	}
	n.ShowMain(ctx, p)
}

func (n *terminalNavigator) ShowOnboarding(ctx context.Context, p *backend.Profile) {
	pterm.Info.Printf("Welcome, %s! Your account has no role yet.\n", p.DisplayName())
	if !terminal.IsInteractive() {
		fmt.Println("   Run 'marketplace role set <customer|vendor>' to finish onboarding.")
		return
	}

	const prompt = "How will you use the marketplace?"
	role, err := pterm.DefaultInteractiveSelect.
		WithOptions(onboardingRoles).
		WithDefaultText(prompt).
		Show()
	if err != nil {
		logging.Debug("cmd", "role prompt aborted", map[string]any{"error": err.Error()})
		return
	}
	// The select echoes "<prompt>: <role>"; chooseRole prints the outcome.
	terminal.ClearPreviousLines(len(prompt) + 2 + len(role))
	if err := chooseRole(ctx, n.app, role); err != nil {
		return
	}
	if st := n.app.ctrl.State(); st.Profile.HasRoles() {
		n.ShowMain(ctx, st.Profile)
	}
}

func (n *terminalNavigator) ShowMain(_ context.Context, p *backend.Profile) {
	fmt.Printf("✅ Signed in as %s\n", p.DisplayName())
}

// chooseRole requests role and refreshes the profile so the controller sees
// the new roles.
func chooseRole(ctx context.Context, a *app, role string) error {
	rs, err := a.client.SetUserRole(ctx, role)
	if err != nil {
		return presentErr(err, "setting your role")
	}
	if rs.Status != "" && rs.Status != "approved" {
		pterm.Info.Printf("Role %q requested (%s).\n", rs.Role, rs.Status)
	} else {
		pterm.Success.Printf("Role set to %q.\n", rs.Role)
	}
	if err := a.ctrl.RefreshProfile(ctx); err != nil {
		return presentErr(err, "refreshing your profile")
	}
	return nil
}

// runEmbeddedLogin opens the login page in a dedicated browser window and
// waits for the session to be harvested and verified.
func runEmbeddedLogin(ctx context.Context, a *app) (*backend.Profile, error) {
	detector, err := webauth.NewDetector(a.cfg.BaseURL, a.cfg.LoginPath, a.cfg.DenyHosts)
	if err != nil {
		return nil, err
	}
	profileDir, err := a.cfg.BrowserProfileDir()
	if err != nil {
		return nil, err
	}

	view, err := cdp.Open(ctx, cdp.LaunchOptions{
		Path:       a.cfg.Browser.Path,
		ProfileDir: profileDir,
		Headless:   a.cfg.Browser.Headless,
	}, webauth.BindingName)
	if err != nil {
		return nil, autherrors.Wrap(autherrors.BrowserFailed, "open browser", err)
	}

	fmt.Println("🌐 A browser window has opened. Sign in there to continue.")
	sp := startInlineSpinner(os.Stdout, "Waiting for sign-in", spinnerFrames, 120*time.Millisecond)
	defer sp.Stop()

	flow := webauth.NewFlow(webauth.Options{
		View:        view,
		Detector:    detector,
		Store:       a.store,
		Profiles:    a.client,
		Session:     a.ctrl,
		LoginURL:    a.client.LoginURL(),
		SettleDelay: a.cfg.SettleDelay.Std(),
		OnPhase: func(p webauth.Phase) {
			if p.Authenticating() {
				sp.SetText("Authenticating")
			} else {
				sp.SetText("Waiting for sign-in")
			}
		},
	})
	return flow.Run(ctx)
}
