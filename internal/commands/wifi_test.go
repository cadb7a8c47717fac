// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWifiProfiles(t *testing.T) {
	out := []string{
		"Profiles on interface Wi-Fi:",
		"",
		"Group policy profiles (read only)",
		"---------------------------------",
		"    <None>",
		"",
		"User profiles",
		"-------------",
		"    All User Profile     : HomeNet",
		"    All User Profile     : Cafe: Guest",
		"    User Profile         : Office",
		"    All User Profile     : ",
	}
	assert.Equal(t, []string{"HomeNet", "Cafe: Guest", "Office"}, ParseWifiProfiles(out))
	assert.Empty(t, ParseWifiProfiles(nil))
}

func TestParseWifiKey(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		want   string
		wantOK bool
	}{
		{"present", []string{"Security settings", "    Authentication         : WPA2-Personal", "    Key Content            : hunter2"}, "hunter2", true},
		{"open network", []string{"    Authentication         : Open", "    Security key           : Absent"}, "", false},
		{"empty value", []string{"    Key Content            :   "}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseWifiKey(tt.lines)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestWantsReveal(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", false},
		{"--show", true},
		{"-s", true},
		{"SHOW", true},
		{"--shown", false},
	}
	for _, tt := range tests {
		if got := wantsReveal(tt.input); got != tt.want {
			t.Errorf("wantsReveal(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
