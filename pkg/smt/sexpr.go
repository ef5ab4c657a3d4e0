package smt

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// sexpr is one parsed solver response element.
type sexpr struct {
	atom   string
	quoted bool
	list   []sexpr
	isList bool
}

func (s sexpr) head() string {
	if !s.isList || len(s.list) == 0 || s.list[0].isList {
		return ""
	}
	return s.list[0].atom
}

// readSexprs tokenizes solver output into top-level s-expressions.
func readSexprs(input string) ([]sexpr, error) {
	r := &sexprReader{src: input}
	var out []sexpr
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return out, nil
		}
		expr, err := r.read()
		if err != nil {
			return out, err
		}
		out = append(out, expr)
	}
}

type sexprReader struct {
	src string
	pos int
}

func (r *sexprReader) skipSpace() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.pos++
		default:
			return
		}
	}
}

func (r *sexprReader) read() (sexpr, error) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return sexpr{}, fmt.Errorf("unexpected end of solver output")
	}
	switch c := r.src[r.pos]; c {
	case '(':
		r.pos++
		list := sexpr{isList: true}
		for {
			r.skipSpace()
			if r.pos >= len(r.src) {
				return sexpr{}, fmt.Errorf("unterminated list in solver output")
			}
			if r.src[r.pos] == ')' {
				r.pos++
				return list, nil
			}
			item, err := r.read()
			if err != nil {
				return sexpr{}, err
			}
			list.list = append(list.list, item)
		}
	case ')':
		return sexpr{}, fmt.Errorf("unexpected ')' at offset %d", r.pos)
	case '"':
		return r.readString()
	case '|':
		end := strings.IndexByte(r.src[r.pos+1:], '|')
		if end < 0 {
			return sexpr{}, fmt.Errorf("unterminated quoted symbol")
		}
		atom := r.src[r.pos+1 : r.pos+1+end]
		r.pos += end + 2
		return sexpr{atom: atom}, nil
	default:
		start := r.pos
		for r.pos < len(r.src) && !strings.ContainsRune(" \t\r\n();\"", rune(r.src[r.pos])) {
			r.pos++
		}
		return sexpr{atom: r.src[start:r.pos]}, nil
	}
}

// readString handles SMT-LIB string literals, where "" escapes a quote.
func (r *sexprReader) readString() (sexpr, error) {
	r.pos++
	var b strings.Builder
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		r.pos++
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		if r.pos < len(r.src) && r.src[r.pos] == '"' {
			b.WriteByte('"')
			r.pos++
			continue
		}
		return sexpr{atom: b.String(), quoted: true}, nil
	}
	return sexpr{}, fmt.Errorf("unterminated string literal")
}

// parseModel reads a get-model response. Definitions of unsupported sorts
// and functions with parameters are skipped.
func parseModel(expr sexpr) (*Model, error) {
	if !expr.isList {
		return nil, fmt.Errorf("model is not a list")
	}
	defs := expr.list
	if expr.head() == "model" {
		defs = defs[1:]
	}
	model := &Model{}
	for _, def := range defs {
		if def.head() != "define-fun" || len(def.list) != 5 {
			continue
		}
		name := def.list[1].atom
		if params := def.list[2]; !params.isList || len(params.list) != 0 {
			continue
		}
		sort := Sort(def.list[3].atom)
		value, err := parseValue(def.list[4], sort)
		if err != nil {
			return nil, fmt.Errorf("value of '%s': %w", name, err)
		}
		model.Assignments = append(model.Assignments, Assignment{Name: name, Value: value})
	}
	return model, nil
}

func parseValue(expr sexpr, sort Sort) (Value, error) {
	switch sort {
	case SortBool:
		b, err := strconv.ParseBool(expr.atom)
		if err != nil || expr.isList {
			return Value{}, fmt.Errorf("invalid Bool value")
		}
		return BoolValue(b), nil
	case SortString:
		if !expr.quoted {
			return Value{}, fmt.Errorf("invalid String value")
		}
		return StringValue(expr.atom), nil
	case SortInt, SortReal:
		r, err := parseNumber(expr)
		if err != nil {
			return Value{}, err
		}
		if sort == SortReal {
			return RealValue(r), nil
		}
		if !r.IsInt() || !r.Num().IsInt64() {
			return Value{}, fmt.Errorf("invalid Int value %s", r.RatString())
		}
		return IntValue(r.Num().Int64()), nil
	default:
		return Value{}, fmt.Errorf("unsupported sort %s", sort)
	}
}

// parseNumber accepts 42, 1.5, (- x) and (/ x y).
func parseNumber(expr sexpr) (*big.Rat, error) {
	if !expr.isList {
		r, ok := new(big.Rat).SetString(expr.atom)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", expr.atom)
		}
		return r, nil
	}
	switch {
	case expr.head() == "-" && len(expr.list) == 2:
		inner, err := parseNumber(expr.list[1])
		if err != nil {
			return nil, err
		}
		return inner.Neg(inner), nil
	case expr.head() == "/" && len(expr.list) == 3:
		num, err := parseNumber(expr.list[1])
		if err != nil {
			return nil, err
		}
		den, err := parseNumber(expr.list[2])
		if err != nil {
			return nil, err
		}
		if den.Sign() == 0 {
			return nil, fmt.Errorf("division by zero in model value")
		}
		return num.Quo(num, den), nil
	default:
		return nil, fmt.Errorf("unsupported numeric form")
	}
}
