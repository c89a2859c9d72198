// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build !darwin

package keychain

import "errors"

var errNoSecurityCLI = errors.New("security command backend is macOS only")

// securityBackend is never constructed outside macOS; NewManager goes straight
// to the keyring library there.
type securityBackend struct{}

func newSecurityBackend() (*securityBackend, error) { return nil, errNoSecurityCLI }

func (s *securityBackend) Set(string, string) error   { return errNoSecurityCLI }
func (s *securityBackend) Get(string) (string, error) { return "", errNoSecurityCLI }
func (s *securityBackend) Delete(string) error        { return errNoSecurityCLI }
