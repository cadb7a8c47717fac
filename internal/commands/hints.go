// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance is the largest edit distance offered as a correction.
const maxSuggestDistance = 2

// isCommandNotFound reports whether a shell exit code means the program
// could not be found (127 for POSIX shells, 9009 for cmd.exe).
func isCommandNotFound(code int) bool {
	return code == 127 || code == 9009
}

// Suggest returns the candidate closest to word by edit distance, if it is
// close enough and not identical. Ties keep the earlier candidate.
func Suggest(word string, candidates []string) (string, bool) {
	word = strings.ToLower(word)
	if word == "" {
		return "", false
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lc == word {
			return "", false
		}
		if d := levenshtein.ComputeDistance(word, lc); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}
