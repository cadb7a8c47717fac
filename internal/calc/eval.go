// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package calc

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// ErrDivisionByZero is returned for "/", "//" and "%" with a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

// maxExponentBits bounds integer powers so "9**9**9" fails instead of
// exhausting memory.
const maxExponentBits = 1 << 16

// Eval parses and evaluates expr.
func Eval(expr string) (Value, error) {
	if strings.TrimSpace(expr) == "" {
		return Value{}, errors.New("empty expression")
	}
	toks, err := tokenize(expr)
	if err != nil {
		return Value{}, err
	}
	p := &parser{toks: toks}
	v, err := p.parseOr()
	if err != nil {
		return Value{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Value{}, fmt.Errorf("invalid syntax at position %d: unexpected %q", t.pos, t.text)
	}
	return v, nil
}

// =============================================================================
// PARSER
// =============================================================================

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) acceptName(name string) bool {
	if t := p.peek(); t.kind == tokName && t.text == name {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (Value, error) {
	left, err := p.parseAnd()
	if err != nil {
		return Value{}, err
	}
	for p.acceptName("or") {
		right, err := p.parseAnd()
		if err != nil {
			return Value{}, err
		}
		if !left.Truthy() {
			left = right
		}
	}
	return left, nil
}

func (p *parser) parseAnd() (Value, error) {
	left, err := p.parseNot()
	if err != nil {
		return Value{}, err
	}
	for p.acceptName("and") {
		right, err := p.parseNot()
		if err != nil {
			return Value{}, err
		}
		if left.Truthy() {
			left = right
		}
	}
	return left, nil
}

func (p *parser) parseNot() (Value, error) {
	if p.acceptName("not") {
		v, err := p.parseNot()
		if err != nil {
			return Value{}, err
		}
		return boolValue(!v.Truthy()), nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Value, error) {
	left, err := p.parseSum()
	if err != nil {
		return Value{}, err
	}
	result := Value{}
	chained := false
	for {
		op, ok := p.acceptOp("<", "<=", ">", ">=", "==", "!=")
		if !ok {
			break
		}
		right, err := p.parseSum()
		if err != nil {
			return Value{}, err
		}
		ok = compare(op, left, right)
		if !chained {
			result = boolValue(ok)
			chained = true
		} else if result.b {
			result = boolValue(ok)
		}
		left = right
	}
	if chained {
		return result, nil
	}
	return left, nil
}

func (p *parser) parseSum() (Value, error) {
	left, err := p.parseTerm()
	if err != nil {
		return Value{}, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return Value{}, err
		}
		if left, err = arith(op, left, right); err != nil {
			return Value{}, err
		}
	}
}

func (p *parser) parseTerm() (Value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Value{}, err
	}
	for {
		op, ok := p.acceptOp("*", "/", "//", "%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		if left, err = arith(op, left, right); err != nil {
			return Value{}, err
		}
	}
}

func (p *parser) parseUnary() (Value, error) {
	if op, ok := p.acceptOp("+", "-"); ok {
		v, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		if op == "+" {
			return numeric(v), nil
		}
		return negate(v), nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Value, error) {
	base, err := p.parseAtom()
	if err != nil {
		return Value{}, err
	}
	if _, ok := p.acceptOp("**"); ok {
		exp, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		return power(base, exp)
	}
	return base, nil
}

func (p *parser) parseAtom() (Value, error) {
	t := p.next()
	switch t.kind {
	case tokInt:
		i, ok := new(big.Int).SetString(t.text, 10)
		if !ok {
			return Value{}, fmt.Errorf("invalid integer %q", t.text)
		}
		return intValue(i), nil

	case tokFloat:
		f, _, err := big.ParseFloat(t.text, 10, 53, big.ToNearestEven)
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", t.text)
		}
		v, _ := f.Float64()
		return floatValue(v), nil

	case tokName:
		switch t.text {
		case "True":
			return boolValue(true), nil
		case "False":
			return boolValue(false), nil
		case "and", "or", "not":
			return Value{}, fmt.Errorf("invalid syntax at position %d: unexpected %q", t.pos, t.text)
		}
		return Value{}, fmt.Errorf("name '%s' is not defined", t.text)

	case tokLParen:
		v, err := p.parseOr()
		if err != nil {
			return Value{}, err
		}
		if p.next().kind != tokRParen {
			return Value{}, errors.New("invalid syntax: '(' was never closed")
		}
		return v, nil

	case tokEOF:
		return Value{}, errors.New("invalid syntax: unexpected end of expression")
	}
	return Value{}, fmt.Errorf("invalid syntax at position %d: unexpected %q", t.pos, t.text)
}

// =============================================================================
// OPERATIONS
// =============================================================================

// numeric turns a bool into its integer value; other values pass through.
func numeric(v Value) Value {
	if v.kind == KindBool {
		return intValue(v.Int())
	}
	return v
}

func negate(v Value) Value {
	v = numeric(v)
	if v.kind == KindFloat {
		return floatValue(-v.f)
	}
	return intValue(new(big.Int).Neg(v.i))
}

func bothInt(a, b Value) bool {
	return a.kind != KindFloat && b.kind != KindFloat
}

func arith(op string, a, b Value) (Value, error) {
	if op == "/" {
		if b.Float() == 0 {
			return Value{}, ErrDivisionByZero
		}
		if bothInt(a, b) {
			r, _ := new(big.Rat).SetFrac(a.Int(), b.Int()).Float64()
			return floatValue(r), nil
		}
		return floatValue(a.Float() / b.Float()), nil
	}

	if bothInt(a, b) {
		x, y := a.Int(), b.Int()
		switch op {
		case "+":
			return intValue(x.Add(x, y)), nil
		case "-":
			return intValue(x.Sub(x, y)), nil
		case "*":
			return intValue(x.Mul(x, y)), nil
		case "//", "%":
			if y.Sign() == 0 {
				return Value{}, ErrDivisionByZero
			}
			q, r := floorDivMod(x, y)
			if op == "//" {
				return intValue(q), nil
			}
			return intValue(r), nil
		}
	}

	x, y := a.Float(), b.Float()
	switch op {
	case "+":
		return floatValue(x + y), nil
	case "-":
		return floatValue(x - y), nil
	case "*":
		return floatValue(x * y), nil
	case "//", "%":
		if y == 0 {
			return Value{}, ErrDivisionByZero
		}
		q := math.Floor(x / y)
		if op == "//" {
			return floatValue(q), nil
		}
		r := math.Mod(x, y)
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		}
		return floatValue(r), nil
	}
	return Value{}, fmt.Errorf("unsupported operator %q", op)
}

// floorDivMod divides rounding toward negative infinity; the remainder takes
// the divisor's sign.
func floorDivMod(x, y *big.Int) (*big.Int, *big.Int) {
	q, r := new(big.Int).QuoRem(x, y, new(big.Int))
	if r.Sign() != 0 && (r.Sign() < 0) != (y.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
		r.Add(r, y)
	}
	return q, r
}

func power(base, exp Value) (Value, error) {
	if bothInt(base, exp) {
		b, e := base.Int(), exp.Int()
		if e.Sign() >= 0 {
			if b.BitLen() > 1 && e.Cmp(big.NewInt(maxExponentBits)) > 0 {
				return Value{}, errors.New("exponent too large")
			}
			if int64(b.BitLen())*e.Int64() > maxExponentBits*8 {
				return Value{}, errors.New("result too large")
			}
			return intValue(new(big.Int).Exp(b, e, nil)), nil
		}
		if b.Sign() == 0 {
			return Value{}, errors.New("0 cannot be raised to a negative power")
		}
	}
	x, y := base.Float(), exp.Float()
	if x == 0 && y < 0 {
		return Value{}, errors.New("0 cannot be raised to a negative power")
	}
	if x < 0 && y != math.Trunc(y) {
		return Value{}, errors.New("negative number cannot be raised to a fractional power")
	}
	r := math.Pow(x, y)
	if math.IsInf(r, 0) {
		return Value{}, errors.New("numerical result out of range")
	}
	return floatValue(r), nil
}

func compare(op string, a, b Value) bool {
	var c int
	if bothInt(a, b) {
		c = a.Int().Cmp(b.Int())
	} else {
		x, y := a.Float(), b.Float()
		if math.IsNaN(x) || math.IsNaN(y) {
			return op == "!="
		}
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	}
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	case "==":
		return c == 0
	case "!=":
		return c != 0
	}
	return false
}
