// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"marketplace/cli/internal/auth"
	"marketplace/cli/internal/backend"
	"marketplace/cli/internal/switchauth"
	"marketplace/cli/internal/xdg"
)

var (
	switchUseScheme bool
	switchTimeout   time.Duration
)

// switchAccountCmd drops the current session and signs in again through the
// system browser. The browser returns a one-time code, which is exchanged for
// a new session.
var switchAccountCmd = &cobra.Command{
	Use:   "switch-account",
	Short: "Sign out and sign in with another account",
	Long: `The switch-account command removes the current session, then opens your
default browser on the marketplace account chooser. After you pick an account
the browser hands a one-time code back to the CLI, which exchanges it for a new
session.

By default the code comes back to a temporary listener on 127.0.0.1. With
--scheme the browser redirects to the registered app scheme instead, and the
OS delivers it through 'marketplace callback <url>'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if switchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, switchTimeout)
			defer cancel()
		}

		var sp *spinner
		stopSpinner := func() {
			if sp != nil {
				sp.Stop()
			}
		}
		defer stopSpinner()
		onOpen := func(u string) {
			pterm.Info.Println("Opening your browser. If nothing happens, visit:")
			fmt.Println("   " + u)
			sp = startInlineSpinner(os.Stdout, "Waiting for the browser", spinnerFrames, 120*time.Millisecond)
		}
		session, err := browserSession(a.cfg.AppScheme, onOpen)
		if err != nil {
			return err
		}

		nav := &terminalNavigator{app: a, noLogin: true}
		a.ctrl.RegisterNavigator(nav)

		flow := &switchauth.Flow{
			Store:   a.store,
			API:     a.client,
			Session: &stopSpinnerOnRoute{Session: a.ctrl, stop: stopSpinner},
			Browser: session,
			AuthURL: a.client.SwitchAccountURL,
		}
		res := flow.SwitchAccount(ctx)
		return presentErr(res.Err, "switching accounts")
	},
}

// stopSpinnerOnRoute stops the spinner before the navigator prints.
type stopSpinnerOnRoute struct {
	switchauth.Session
	stop func()
}

func (s *stopSpinnerOnRoute) RouteTo(ctx context.Context, r auth.Route, p *backend.Profile) {
	s.stop()
	s.Session.RouteTo(ctx, r, p)
}

func browserSession(scheme string, onOpen func(string)) (switchauth.BrowserSession, error) {
	if !switchUseScheme {
		return &switchauth.LoopbackSession{OnOpen: onOpen}, nil
	}
	path, err := handoffPath()
	if err != nil {
		return nil, err
	}
	return &switchauth.SchemeSession{Scheme: scheme, HandoffPath: path, OnOpen: onOpen}, nil
}

func handoffPath() (string, error) {
	dir, err := xdg.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "callback.json"), nil
}

// callbackCmd is what the OS runs when the browser opens
// <scheme>://oauth-callback. It forwards the URL to the waiting
// switch-account command.
var callbackCmd = &cobra.Command{
	Use:    "callback <url>",
	Short:  "Deliver an app-scheme callback URL to a waiting sign-in",
	Args:   cobra.ExactArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := handoffPath()
		if err != nil {
			return err
		}
		if err := switchauth.Deliver(cmd.Context(), path, args[0]); err != nil {
			return err
		}
		fmt.Println("✅ Sign-in handed back to the marketplace CLI. You can close this window.")
		return nil
	},
}

func init() {
	switchAccountCmd.Flags().BoolVar(&switchUseScheme, "scheme", false, "Receive the callback through the registered app scheme")
	switchAccountCmd.Flags().DurationVar(&switchTimeout, "timeout", 10*time.Minute, "Give up waiting for the browser after this long")
	rootCmd.AddCommand(switchAccountCmd)
	rootCmd.AddCommand(callbackCmd)
}
