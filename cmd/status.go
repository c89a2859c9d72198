// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"marketplace/cli/internal/httperrors"
)

// statusCmd shows where the client stands: which backend, whether a session
// is stored, and whether it is still accepted.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend and session status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		_, stored, storeErr := a.store.Get()
		st := a.ctrl.Bootstrap(ctx)

		session := "none"
		switch {
		case storeErr != nil:
			session = "keychain unavailable"
		case stored && st.IsAuthenticated():
			session = "valid"
		case stored:
			session = "stored but not accepted (run 'marketplace login')"
		}
		user := "-"
		if st.IsAuthenticated() {
			user = st.Profile.DisplayName()
			if !st.Profile.HasRoles() {
				user += " (onboarding required)"
			}
		}
		backendVersion, versionErr := a.client.GetVersion(ctx)
		if versionErr != nil {
			backendVersion = "unreachable"
		}

		data := pterm.TableData{
			{"Backend", a.client.BaseURL()},
			{"Backend version", backendVersion},
			{"Session", session},
			{"User", user},
			{"CLI version", Version},
		}
		if err := pterm.DefaultTable.WithData(data).Render(); err != nil {
			return err
		}
		if !verbose {
			return nil
		}
		if storeErr != nil {
			pterm.Println()
			_ = httperrors.Present(storeErr, "reading the keychain")
		}
		if versionErr != nil {
			pterm.Println()
			_ = httperrors.FormatNetworkError(versionErr, "reaching the backend")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
