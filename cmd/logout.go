// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// logoutCmd removes the stored session. It never contacts the backend.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved session",
	Long: `The logout command deletes the session credential from the OS keychain.
The browser profile used by 'marketplace login' keeps its own cookies; sign out
on the website as well to end the session there.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		a.ctrl.Logout()
		fmt.Println("✅ Session removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
