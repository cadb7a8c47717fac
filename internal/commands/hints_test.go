// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "testing"

func TestSuggest(t *testing.T) {
	words := []string{"serve", "stopserve", "search", "calc", "extract"}

	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"serv", "serve", true},
		{"SERVR", "serve", true},
		{"extrct", "extract", true},
		{"calc", "", false},
		{"kubectl", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Suggest(tt.input, words)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Suggest(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIsCommandNotFound(t *testing.T) {
	for code, want := range map[int]bool{0: false, 1: false, 127: true, 9009: true} {
		if got := isCommandNotFound(code); got != want {
			t.Errorf("isCommandNotFound(%d) = %v, want %v", code, got, want)
		}
	}
}
