// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "strings"

// ParseWifiProfiles extracts profile names from `netsh wlan show profiles`.
func ParseWifiProfiles(lines []string) []string {
	var names []string
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key != "All User Profile" && key != "User Profile" {
			continue
		}
		if name := strings.TrimSpace(value); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ParseWifiKey extracts the "Key Content" value from
// `netsh wlan show profile name=X key=clear`. ok is false for open networks
// and profiles without a stored key.
func ParseWifiKey(lines []string) (key string, ok bool) {
	for _, line := range lines {
		k, v, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.TrimSpace(k) == "Key Content" {
			if v = strings.TrimSpace(v); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// wantsReveal reports whether the wifcode arguments ask to show keys.
func wantsReveal(tail string) bool {
	for _, f := range strings.Fields(strings.ToLower(tail)) {
		if f == "--show" || f == "-s" || f == "show" {
			return true
		}
	}
	return false
}
