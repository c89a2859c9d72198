// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package webauth

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Detector decides from a navigation URL alone whether the backend's login
// flow has completed. The web view gives no programmatic "login succeeded"
// signal, so completion means: back on the backend's own host, off the login
// path, and not on an identity-provider host.
type Detector struct {
	backendHost string
	loginPath   string
	denyHosts   []string
}

// NewDetector builds a detector for the backend at baseURL.
func NewDetector(baseURL, loginPath string, denyHosts []string) (*Detector, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", baseURL)
	}
	d := &Detector{
		backendHost: canonicalHost(u),
		loginPath:   normalizePath(loginPath),
	}
	for _, h := range denyHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			d.denyHosts = append(d.denyHosts, h)
		}
	}
	return d, nil
}

// IsComplete reports whether raw is a post-login landing URL.
func (d *Detector) IsComplete(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if canonicalHost(u) != d.backendHost {
		return false
	}
	if d.denied(strings.ToLower(u.Hostname())) {
		return false
	}
	p := normalizePath(u.Path)
	if p == d.loginPath || strings.HasPrefix(p, d.loginPath+"/") {
		return false
	}
	return true
}

func (d *Detector) denied(hostname string) bool {
	for _, h := range d.denyHosts {
		if hostname == h || strings.HasSuffix(hostname, "."+h) {
			return true
		}
	}
	return false
}

// canonicalHost lower-cases the host and drops a port that is the default
// for the URL's scheme, the way browsers report navigations.
func canonicalHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	switch {
	case port == "",
		port == "80" && u.Scheme == "http",
		port == "443" && u.Scheme == "https":
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

func normalizePath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}
