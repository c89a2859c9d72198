// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	loginForce    bool
	loginBrowser  string
	loginHeadless bool
)

// loginCmd signs in through an embedded browser window. The window shows the
// marketplace login page; once the user lands back on the marketplace after
// authenticating (including through Google, Apple or another provider), the
// session cookie is taken from the page, stored in the OS keychain and
// verified against the profile endpoint.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the marketplace",
	Long: `The login command opens a browser window on the marketplace login page.
Sign in there as usual; the window closes by itself once the session has been
verified. The session is stored in the OS keychain.

Close the window or press Ctrl-C to cancel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp()
		if err != nil {
			return err
		}
		if loginBrowser != "" {
			a.cfg.Browser.Path = loginBrowser
		}
		if loginHeadless {
			a.cfg.Browser.Headless = true
		}

		if !loginForce {
			if st := a.ctrl.Bootstrap(ctx); st.IsAuthenticated() {
				printWhoAmI(st.Profile)
				cmd.Println("   Already signed in. Use --force to sign in again.")
				return nil
			}
		}

		nav := &terminalNavigator{app: a}
		a.ctrl.RegisterNavigator(nav)
		a.ctrl.Login(ctx)
		return presentErr(nav.loginErr, "signing in")
	},
}

func init() {
	loginCmd.Flags().BoolVar(&loginForce, "force", false, "Sign in even if a valid session exists")
	loginCmd.Flags().StringVar(&loginBrowser, "browser", "", "Path to a Chromium-based browser")
	loginCmd.Flags().BoolVar(&loginHeadless, "headless", false, "Run the browser without a window (automation only)")
	rootCmd.AddCommand(loginCmd)
}
