// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"marketplace/cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change CLI settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path, _ := config.Path()
		b, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n%s\n", path, b)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long:  "Keys: " + strings.Join(configKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadStored()
		if err != nil {
			return err
		}
		if err := setConfigValue(&cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("✅ %s updated\n", args[0])
		return nil
	},
}

var configSetters = map[string]func(c *config.Config, v string) error{
	"base_url":   func(c *config.Config, v string) error { c.BaseURL = v; return nil },
	"app_scheme": func(c *config.Config, v string) error { c.AppScheme = v; return nil },
	"login_path": func(c *config.Config, v string) error { c.LoginPath = v; return nil },
	"log_level":  func(c *config.Config, v string) error { c.LogLevel = v; return nil },
	"deny_hosts": func(c *config.Config, v string) error {
		c.DenyHosts = nil
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				c.DenyHosts = append(c.DenyHosts, h)
			}
		}
		return nil
	},
	"browser.path":        func(c *config.Config, v string) error { c.Browser.Path = v; return nil },
	"browser.profile_dir": func(c *config.Config, v string) error { c.Browser.ProfileDir = v; return nil },
	"browser.headless": func(c *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.Browser.Headless = b
		return err
	},
	"settle_delay": func(c *config.Config, v string) error {
		d, err := time.ParseDuration(v)
		c.SettleDelay = config.Duration(d)
		return err
	},
	"http_timeout": func(c *config.Config, v string) error {
		d, err := time.ParseDuration(v)
		c.HTTPTimeout = config.Duration(d)
		return err
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// setConfigValue applies key=value to cfg and validates the result.
func setConfigValue(cfg *config.Config, key, value string) error {
	set, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(configKeys(), ", "))
	}
	if err := set(cfg, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return cfg.Validate()
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
