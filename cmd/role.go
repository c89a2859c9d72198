// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"marketplace/cli/internal/backend"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Show or choose your marketplace role",
}

var roleGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show your current role",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		rs, err := a.client.GetUserRole(cmd.Context())
		if backend.IsAuthError(err) {
			printNotLoggedIn()
			return nil
		}
		if err != nil {
			return presentErr(err, "loading your role")
		}
		if rs.Role == "" {
			fmt.Println("No role yet. Run 'marketplace role set <" + strings.Join(onboardingRoles, "|") + ">'.")
			return nil
		}
		if rs.Status != "" {
			fmt.Printf("Role: %s (%s)\n", rs.Role, rs.Status)
		} else {
			fmt.Printf("Role: %s\n", rs.Role)
		}
		return nil
	},
}

var roleSetCmd = &cobra.Command{
	Use:       "set <role>",
	Short:     "Choose your role",
	Args:      cobra.ExactArgs(1),
	ValidArgs: onboardingRoles,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if st := a.ctrl.Bootstrap(ctx); !st.IsAuthenticated() {
			printNotLoggedIn()
			return nil
		}
		return chooseRole(ctx, a, args[0])
	},
}

func init() {
	roleCmd.AddCommand(roleGetCmd, roleSetCmd)
	rootCmd.AddCommand(roleCmd)
}
