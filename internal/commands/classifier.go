// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Kind is the category of a classified line.
type Kind int

const (
	KindBuiltin Kind = iota
	KindRichShell
	KindPlainShell
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindRichShell:
		return "rich-shell"
	case KindPlainShell:
		return "plain-shell"
	}
	return "unknown"
}

// Classification is the immutable result of Classify.
type Classification struct {
	Kind Kind
	// Verb is the canonical built-in name (KindBuiltin only).
	Verb string
	// Tail is the argument text after the first word, original casing.
	Tail string
	// Raw is the trimmed input line.
	Raw string
}

// =============================================================================
// RULE TABLE
// =============================================================================

// Match says how a rule's words are compared with the first word of a line.
type Match int

const (
	// MatchExact requires the line to be exactly one of the words.
	MatchExact Match = iota
	// MatchWithArgs requires one of the words followed by arguments.
	MatchWithArgs
	// MatchWord accepts one of the words with or without arguments.
	MatchWord
)

// Rule maps a first word to a built-in verb.
type Rule struct {
	Verb  string
	Words []string
	Match Match
}

func (r Rule) matches(first string, hasArgs bool) bool {
	found := false
	for _, w := range r.Words {
		if w == first {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	switch r.Match {
	case MatchExact:
		return !hasArgs
	case MatchWithArgs:
		return hasArgs
	default:
		return true
	}
}

// rules is the priority order. "cd" alone prints the directory, so the
// navigate rule (cd with arguments) sits before the pwd rule.
var rules = []Rule{
	{Verb: "help", Words: []string{"help", "?"}, Match: MatchExact},
	{Verb: "clear", Words: []string{"clear", "cls"}, Match: MatchExact},
	{Verb: "exit", Words: []string{"exit"}, Match: MatchExact},
	{Verb: "cd", Words: []string{"cd"}, Match: MatchWithArgs},
	{Verb: "pwd", Words: []string{"pwd", "cd"}, Match: MatchExact},
	{Verb: "ls", Words: []string{"ls", "dir"}, Match: MatchExact},
	{Verb: "calc", Words: []string{"calc"}, Match: MatchWithArgs},
	{Verb: "tree", Words: []string{"tree"}, Match: MatchWord},
	{Verb: "wifcode", Words: []string{"wifcode"}, Match: MatchWord},
	{Verb: "search", Words: []string{"search"}, Match: MatchWithArgs},
	{Verb: "mkcd", Words: []string{"mkcd"}, Match: MatchWithArgs},
	{Verb: "extract", Words: []string{"extract"}, Match: MatchWithArgs},
	{Verb: "serve", Words: []string{"serve"}, Match: MatchWord},
	{Verb: "stopserve", Words: []string{"stopserve"}, Match: MatchWord},
	{Verb: "mops", Words: []string{"mops"}, Match: MatchWithArgs},
	{Verb: "newwindow", Words: []string{"newwindow"}, Match: MatchExact},
	{Verb: "splitview", Words: []string{"splitview"}, Match: MatchExact},
	{Verb: "favorite", Words: []string{"favorite"}, Match: MatchWithArgs},
	{Verb: "favorites", Words: []string{"favorites"}, Match: MatchExact},
	{Verb: "history", Words: []string{"history"}, Match: MatchExact},
	{Verb: "advanced", Words: []string{"advanced"}, Match: MatchWord},
	{Verb: "tutorial", Words: []string{"tutorial"}, Match: MatchWord},
	{Verb: "timestamps", Words: []string{"timestamps"}, Match: MatchWord},
	{Verb: "linewrap", Words: []string{"linewrap"}, Match: MatchWord},
}

// ruleAliases returns the first words that select verb other than verb
// itself and other verbs' names.
func ruleAliases(verb string) []string {
	var out []string
	for _, r := range rules {
		if r.Verb != verb {
			continue
		}
		for _, w := range r.Words {
			if w != verb && !isVerb(w) && !contains(out, w) {
				out = append(out, w)
			}
		}
	}
	return out
}

func isVerb(word string) bool {
	for _, r := range rules {
		if r.Verb == word {
			return true
		}
	}
	return false
}

// Rules returns a copy of the classification table in priority order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify decides how line is handled. richKeywords are lowercase
// substrings that send an unmatched line to the rich shell. The line must
// be non-empty after trimming; the router never classifies empty input.
func Classify(line string, richKeywords []string) Classification {
	raw := strings.TrimSpace(line)
	lower := strings.ToLower(norm.NFKC.String(raw))

	first, rest := splitFirst(lower)
	hasArgs := rest != ""

	for _, r := range rules {
		if r.matches(first, hasArgs) {
			_, tail := splitFirst(raw)
			return Classification{Kind: KindBuiltin, Verb: r.Verb, Tail: tail, Raw: raw}
		}
	}

	for _, kw := range richKeywords {
		if kw != "" && strings.Contains(lower, kw) {
			return Classification{Kind: KindRichShell, Raw: raw}
		}
	}
	return Classification{Kind: KindPlainShell, Raw: raw}
}

// splitFirst returns the first whitespace-delimited word and the trimmed
// remainder.
func splitFirst(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, isSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' || r == ' ' || r == '　'
}
