// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"marketplace/cli/internal/devbackend"
)

var (
	devAddr      string
	devRedisAddr string
	devSecret    string
)

// devBackendCmd runs a local stand-in for the marketplace backend.
var devBackendCmd = &cobra.Command{
	Use:    "dev-backend",
	Short:  "Run a local fake marketplace backend",
	Hidden: true,
	Long: `dev-backend serves the login page, profile, switch-account, code exchange
and role endpoints on a local address. Point the CLI at it with
--base-url http://<addr> to try sign-in without the real service.

Seeded accounts: buyer@example.com (customer) and new@example.com (no role).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := devbackend.Options{Secret: devSecret, Version: "dev-" + Version}
		if devRedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: devRedisAddr})
			defer rdb.Close()
			if err := rdb.Ping(cmd.Context()).Err(); err != nil {
				return fmt.Errorf("redis %s: %w", devRedisAddr, err)
			}
			opts.Codes = devbackend.NewRedisCodes(rdb, "marketplace-dev")
		}
		srv := devbackend.New(opts)

		pterm.Info.Printf("Dev backend listening on http://%s\n", devAddr)
		fmt.Printf("   marketplace --base-url http://%s login\n", devAddr)
		return srv.ListenAndServe(cmd.Context(), devAddr)
	},
}

func init() {
	devBackendCmd.Flags().StringVar(&devAddr, "addr", "127.0.0.1:8787", "Listen address")
	devBackendCmd.Flags().StringVar(&devRedisAddr, "redis-addr", "", "Keep one-time codes in Redis at this address")
	devBackendCmd.Flags().StringVar(&devSecret, "secret", "", "Session signing secret (random when empty)")
	rootCmd.AddCommand(devBackendCmd)
}
