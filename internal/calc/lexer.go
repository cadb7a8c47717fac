// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package calc

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokFloat
	tokName
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// twoCharOps must be checked before single characters.
var twoCharOps = []string{"**", "//", "<=", ">=", "==", "!="}

const singleCharOps = "+-*/%<>"

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++

		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++

		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++

		case isDigit(src[i]) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			tok, next, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next

		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(src) && (src[i] == '_' || isDigit(src[i]) || unicode.IsLetter(rune(src[i]))) {
				i++
			}
			toks = append(toks, token{tokName, src[start:i], start})

		default:
			matched := false
			for _, op := range twoCharOps {
				if strings.HasPrefix(src[i:], op) {
					toks = append(toks, token{tokOp, op, i})
					i += len(op)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if strings.ContainsRune(singleCharOps, c) {
				toks = append(toks, token{tokOp, string(c), i})
				i++
				continue
			}
			return nil, fmt.Errorf("invalid syntax at position %d: %q", i, string(c))
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

func lexNumber(src string, i int) (token, int, error) {
	start := i
	isFloat := false
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		isFloat = true
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j >= len(src) || !isDigit(src[j]) {
			return token{}, 0, fmt.Errorf("invalid syntax at position %d: malformed exponent", i)
		}
		for j < len(src) && isDigit(src[j]) {
			j++
		}
		isFloat = true
		i = j
	}
	if i < len(src) && (unicode.IsLetter(rune(src[i])) || src[i] == '_') {
		return token{}, 0, fmt.Errorf("invalid syntax at position %d: invalid decimal literal", i)
	}
	kind := tokInt
	if isFloat {
		kind = tokFloat
	}
	return token{kind, src[start:i], start}, i, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
