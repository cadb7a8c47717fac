// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package calc evaluates arithmetic and boolean expressions without access
// to names, functions or anything outside the expression itself.
//
// # Grammar
//
//	expr       = or
//	or         = and { "or" and }
//	and        = not { "and" not }
//	not        = "not" not | comparison
//	comparison = sum { ("<" | "<=" | ">" | ">=" | "==" | "!=") sum }
//	sum        = term { ("+" | "-") term }
//	term       = unary { ("*" | "/" | "//" | "%") unary }
//	unary      = ("+" | "-") unary | power
//	power      = atom [ "**" unary ]
//	atom       = number | "True" | "False" | "(" expr ")"
//
// Integers are arbitrary precision. "/" always yields a float, "//" and "%"
// floor toward negative infinity, and comparisons chain ("1 < x < 3").
//
// # Usage
//
//	v, err := calc.Eval("6*7")   // v.String() == "42"
//	v, err = calc.Eval("7/2")    // "3.5"
//	_, err = calc.Eval("1/0")    // division by zero
package calc
