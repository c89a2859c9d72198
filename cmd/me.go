// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/spf13/cobra"

	"marketplace/cli/internal/backend"
)

// meCmd prints the full profile of the session owner. Unlike whoami it
// reports why the profile could not be loaded.
var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show your marketplace profile",
	Long: `The me command fetches your profile from the backend and prints it,
including your roles. Accounts without a role still have to finish onboarding
with 'marketplace role set'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if _, ok, err := a.store.Get(); err != nil {
			return presentErr(err, "reading the keychain")
		} else if !ok {
			printNotLoggedIn()
			return nil
		}

		p, err := a.client.GetMobileProfile(cmd.Context())
		if backend.IsAuthError(err) {
			printNotLoggedIn()
			return nil
		}
		if err != nil {
			return presentErr(err, "loading your profile")
		}
		printProfile(p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(meCmd)
}
