package cmd

import (
	"github.com/spf13/cobra"
)

// whoamiCmd represents the whoami command for displaying current authentication state.
// It validates the stored session against the backend's profile endpoint.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated account",
	Long: `The whoami command displays the account the stored session belongs to.
It validates the session with the backend; if there is no valid session it
says so and suggests 'marketplace login'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		st := a.ctrl.Bootstrap(cmd.Context())
		if !st.IsAuthenticated() {
			printNotLoggedIn()
			return nil
		}
		printWhoAmI(st.Profile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
