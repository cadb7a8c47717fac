// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package calc

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Kind is the dynamic type of a Value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
)

// Value is the result of an evaluation.
type Value struct {
	kind Kind
	i    *big.Int
	f    float64
	b    bool
}

func intValue(i *big.Int) Value  { return Value{kind: KindInt, i: i} }
func floatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func boolValue(b bool) Value     { return Value{kind: KindBool, b: b} }

// Kind reports the dynamic type.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer value; bools count as 0 or 1.
func (v Value) Int() *big.Int {
	switch v.kind {
	case KindInt:
		return new(big.Int).Set(v.i)
	case KindBool:
		if v.b {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	}
	if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
		return big.NewInt(0)
	}
	i, _ := big.NewFloat(v.f).Int(nil)
	return i
}

// Float returns the value as a float64.
func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	}
	f, _ := new(big.Float).SetInt(v.i).Float64()
	return f
}

// Truthy follows the usual rule: zero and False are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindFloat:
		return v.f != 0
	}
	return v.i.Sign() != 0
}

// String renders the value: integers without a decimal point, floats in
// their shortest round-trip form with a trailing ".0" when integral.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindFloat:
		return formatFloat(v.f)
	}
	return v.i.String()
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
