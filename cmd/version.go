// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

func printVersion(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	backendVersion, err := a.client.GetVersion(ctx)
	if err != nil {
		backendVersion = "unknown"
	}
	fmt.Printf("marketplace %s\nbackend %s (%s)\n", Version, backendVersion, a.client.Host())
	return nil
}
