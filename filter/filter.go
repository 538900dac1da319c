// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package filter implements the LDAP-style filter grammar used to query
// service properties: a recursive-descent parser, a tree-walking evaluator,
// and structural equivalence/round-trip helpers.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the node type of a parsed Filter.
type Kind int

const (
	KindAnd Kind = iota
	KindOr
	KindNot
	KindEqual
	KindApprox
	KindGreater
	KindGreaterEq
	KindLess
	KindLessEq
	KindPresent
	KindSubstring
)

// String returns a short, human-readable name for k.
func (k Kind) String() string {
	switch k {
	case KindAnd:
		return "AND"
	case KindOr:
		return "OR"
	case KindNot:
		return "NOT"
	case KindEqual:
		return "EQUAL"
	case KindApprox:
		return "APPROX"
	case KindGreater:
		return "GREATER"
	case KindGreaterEq:
		return "GREATER_EQUAL"
	case KindLess:
		return "LESS"
	case KindLessEq:
		return "LESS_EQUAL"
	case KindPresent:
		return "PRESENT"
	case KindSubstring:
		return "SUBSTRING"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Attributes is the minimal behavior a Filter needs to evaluate against.
// properties.Properties already implements this; a plain map does too, via
// MapAttributes, so trackers and the registry can match against live data
// without an intermediate copy.
type Attributes interface {
	Get(key string) (string, bool)
}

// MapAttributes adapts a plain map[string]string into an Attributes.
type MapAttributes map[string]string

// Get implements Attributes.
func (m MapAttributes) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Filter is an immutable node in a parsed filter expression tree. The zero
// value is not valid; construct one with Parse or one of the constructor
// functions (Eq, And, Or, ...). A nil *Filter is a valid "match everything"
// filter, used throughout this module where "no filter" is a legal argument.
type Filter struct {
	kind     Kind
	attr     string
	value    string
	initial  string
	any      []string
	final    string
	children []*Filter
}

// Kind returns f's node kind.
func (f *Filter) Kind() Kind {
	if f == nil {
		return KindAnd // an absent filter behaves like an empty AND: always true
	}

	return f.kind
}

// Attr returns the attribute key for a leaf node. It is empty for AND/OR/NOT.
func (f *Filter) Attr() string {
	if f == nil {
		return ""
	}

	return f.attr
}

// Value returns the comparison value for EQUAL/APPROX/GREATER*/LESS* leaves.
func (f *Filter) Value() string {
	if f == nil {
		return ""
	}

	return f.value
}

// Substring returns the initial prefix, the ordered middle segments, and the
// final suffix of a SUBSTRING leaf. An empty initial or final means that
// side of the pattern is unconstrained (the pattern began or ended with an
// unescaped '*').
func (f *Filter) Substring() (initial string, any []string, final string) {
	if f == nil {
		return "", nil, ""
	}

	return f.initial, f.any, f.final
}

// Children returns the operands of an AND/OR node, or the single operand of
// a NOT node.
func (f *Filter) Children() []*Filter {
	if f == nil {
		return nil
	}

	return f.children
}

// Matches evaluates f against attrs per spec: AND short-circuits on the
// first FALSE, OR short-circuits on the first TRUE, an absent attribute
// fails every comparison except PRESENT's negative case and whatever a
// surrounding NOT does with that failure.
func (f *Filter) Matches(attrs Attributes) bool {
	if f == nil {
		return true
	}

	switch f.kind {
	case KindAnd:
		for _, c := range f.children {
			if !c.Matches(attrs) {
				return false
			}
		}

		return true

	case KindOr:
		for _, c := range f.children {
			if c.Matches(attrs) {
				return true
			}
		}

		return false

	case KindNot:
		return !f.children[0].Matches(attrs)

	case KindPresent:
		_, ok := attrs.Get(f.attr)
		return ok

	case KindEqual:
		v, ok := attrs.Get(f.attr)
		return ok && v == f.value

	case KindApprox:
		v, ok := attrs.Get(f.attr)
		return ok && normalizeApprox(v) == normalizeApprox(f.value)

	case KindGreater, KindGreaterEq, KindLess, KindLessEq:
		v, ok := attrs.Get(f.attr)
		if !ok {
			return false
		}

		return compareValues(f.kind, v, f.value)

	case KindSubstring:
		v, ok := attrs.Get(f.attr)
		if !ok {
			return false
		}

		return matchSubstring(v, f.initial, f.any, f.final)

	default:
		return false
	}
}

// normalizeApprox implements the APPROX normalization: lowercase, trim, and
// collapse internal whitespace runs to a single space.
func normalizeApprox(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// numericKind classifies s the way spec.md §4.2 does: "long" if it parses
// as an integer, else "double" if it parses as a float, else neither. A
// value is never both: "5" is long, never also double, so it can't be
// numerically compared against a double-only value like "5.0".
type numericKind int

const (
	numericNone numericKind = iota
	numericLong
	numericDouble
)

func classifyNumeric(s string) (kind numericKind, i int64, f float64) {
	if iv, err := strconv.ParseInt(s, 10, 64); err == nil {
		return numericLong, iv, 0
	}

	if fv, err := strconv.ParseFloat(s, 64); err == nil {
		return numericDouble, 0, fv
	}

	return numericNone, 0, 0
}

// compareValues implements GREATER/GREATER_EQUAL/LESS/LESS_EQUAL: numeric
// comparison only when both sides parse as the same numeric type (long or
// double), otherwise code-point-order string comparison. "5" and "5.0" are
// different types under this rule (long vs. double) and so compare
// lexicographically, not numerically, matching spec.md §4.2 literally.
func compareValues(kind Kind, a, b string) bool {
	at, ai, af := classifyNumeric(a)
	bt, bi, bf := classifyNumeric(b)

	if at != numericNone && at == bt {
		if at == numericLong {
			return compareOrdered(kind, cmpInt64(ai, bi))
		}

		return compareOrdered(kind, cmpFloat64(af, bf))
	}

	return compareOrdered(kind, strings.Compare(a, b))
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareOrdered(kind Kind, cmp int) bool {
	switch kind {
	case KindGreater:
		return cmp > 0
	case KindGreaterEq:
		return cmp >= 0
	case KindLess:
		return cmp < 0
	case KindLessEq:
		return cmp <= 0
	default:
		return false
	}
}

// matchSubstring applies the initial/any/final segments left to right and
// non-overlapping, per spec §4.2.
func matchSubstring(value, initial string, any []string, final string) bool {
	pos := 0
	if initial != "" {
		if !strings.HasPrefix(value, initial) {
			return false
		}

		pos = len(initial)
	}

	for _, seg := range any {
		if seg == "" {
			continue
		}

		idx := strings.Index(value[pos:], seg)
		if idx < 0 {
			return false
		}

		pos += idx + len(seg)
	}

	if final != "" {
		if !strings.HasSuffix(value, final) {
			return false
		}

		if len(value)-len(final) < pos {
			return false
		}
	}

	return true
}

// Equal reports whether a and b are equivalent filter trees: AND/OR children
// are compared as multisets (order-insensitive), everything else structurally.
// Both nil is equal; exactly one nil is not.
func Equal(a, b *Filter) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindAnd, KindOr:
		return equalMultiset(a.children, b.children)

	case KindNot:
		return Equal(a.children[0], b.children[0])

	case KindPresent:
		return a.attr == b.attr

	case KindSubstring:
		return a.attr == b.attr &&
			a.initial == b.initial &&
			a.final == b.final &&
			stringsEqual(a.any, b.any)

	default:
		return a.attr == b.attr && a.value == b.value
	}
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func equalMultiset(a, b []*Filter) bool {
	if len(a) != len(b) {
		return false
	}

	used := make([]bool, len(b))
	for _, af := range a {
		found := false
		for i, bf := range b {
			if !used[i] && Equal(af, bf) {
				used[i] = true
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

// String reconstructs a syntactically valid filter string equivalent to f.
// The result round-trips through Parse to an Equal filter, though it is not
// guaranteed to be byte-identical to whatever string f was originally parsed
// from (escaping and child ordering are canonicalized).
func (f *Filter) String() string {
	if f == nil {
		return ""
	}

	var sb strings.Builder
	f.write(&sb)
	return sb.String()
}

func (f *Filter) write(sb *strings.Builder) {
	sb.WriteByte('(')
	switch f.kind {
	case KindAnd:
		sb.WriteByte('&')
		for _, c := range f.children {
			c.write(sb)
		}

	case KindOr:
		sb.WriteByte('|')
		for _, c := range f.children {
			c.write(sb)
		}

	case KindNot:
		sb.WriteByte('!')
		f.children[0].write(sb)

	case KindPresent:
		sb.WriteString(f.attr)
		sb.WriteString("=*")

	case KindSubstring:
		sb.WriteString(f.attr)
		sb.WriteByte('=')
		sb.WriteString(escapeValue(f.initial))
		sb.WriteByte('*')
		for _, seg := range f.any {
			sb.WriteString(escapeValue(seg))
			sb.WriteByte('*')
		}

		sb.WriteString(escapeValue(f.final))

	default:
		sb.WriteString(f.attr)
		sb.WriteString(opText(f.kind))
		sb.WriteString(escapeValue(f.value))
	}

	sb.WriteByte(')')
}

func opText(kind Kind) string {
	switch kind {
	case KindEqual:
		return "="
	case KindApprox:
		return "~="
	case KindGreater:
		return ">"
	case KindGreaterEq:
		return ">="
	case KindLess:
		return "<"
	case KindLessEq:
		return "<="
	default:
		return "="
	}
}

func escapeValue(s string) string {
	if !strings.ContainsAny(s, "\\()*") {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '(', ')', '*':
			sb.WriteByte('\\')
		}

		sb.WriteByte(c)
	}

	return sb.String()
}

// Programmatic constructors, used by callers that want to compose a filter
// tree without round-tripping through a string.

// Eq constructs an EQUAL leaf.
func Eq(attr, value string) *Filter { return &Filter{kind: KindEqual, attr: attr, value: value} }

// Approx constructs an APPROX (~=) leaf.
func Approx(attr, value string) *Filter {
	return &Filter{kind: KindApprox, attr: attr, value: value}
}

// Greater constructs a GREATER (>) leaf.
func Greater(attr, value string) *Filter {
	return &Filter{kind: KindGreater, attr: attr, value: value}
}

// GreaterEq constructs a GREATER_EQUAL (>=) leaf.
func GreaterEq(attr, value string) *Filter {
	return &Filter{kind: KindGreaterEq, attr: attr, value: value}
}

// Less constructs a LESS (<) leaf.
func Less(attr, value string) *Filter { return &Filter{kind: KindLess, attr: attr, value: value} }

// LessEq constructs a LESS_EQUAL (<=) leaf.
func LessEq(attr, value string) *Filter {
	return &Filter{kind: KindLessEq, attr: attr, value: value}
}

// Present constructs a PRESENT leaf.
func Present(attr string) *Filter { return &Filter{kind: KindPresent, attr: attr} }

// Substring constructs a SUBSTRING leaf. Pass "" for initial or final to
// leave that side unconstrained.
func Substring(attr, initial string, any []string, final string) *Filter {
	return &Filter{kind: KindSubstring, attr: attr, initial: initial, any: any, final: final}
}

// And constructs an AND node. A nil child is treated as always-true and
// dropped, matching Matches' treatment of nil filters.
func And(children ...*Filter) *Filter {
	return &Filter{kind: KindAnd, children: compact(children)}
}

// Or constructs an OR node.
func Or(children ...*Filter) *Filter {
	return &Filter{kind: KindOr, children: compact(children)}
}

// Not constructs a NOT node.
func Not(child *Filter) *Filter {
	if child == nil {
		child = And()
	}

	return &Filter{kind: KindNot, children: []*Filter{child}}
}

func compact(fs []*Filter) []*Filter {
	out := make([]*Filter, 0, len(fs))
	for _, f := range fs {
		if f != nil {
			out = append(out, f)
		}
	}

	return out
}

// ParseError reports a filter syntax error at a specific byte offset within
// the input string.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("filter: %s at offset %d", e.Msg, e.Offset)
}
