package protocols

import (
	"regexp"
	"strings"
)

// decodeFunc converts one captured value into the position under construction.
// present is false when the field's group did not take part in the match.
type decodeFunc func(b *builder, value string, present bool) error

// part is one element of a grammar: a literal, a field or an optional group.
type part interface {
	expr(sb *strings.Builder)
	collect(fields []field) []field
}

type literal string

func (l literal) expr(sb *strings.Builder) { sb.WriteString(regexp.QuoteMeta(string(l))) }
func (l literal) collect(fields []field) []field { return fields }

// optionalLiteral is a literal that may be left out.
type optionalLiteral string

func (l optionalLiteral) expr(sb *strings.Builder) {
	sb.WriteString("(?:" + regexp.QuoteMeta(string(l)) + ")?")
}
func (l optionalLiteral) collect(fields []field) []field { return fields }

// anything matches the rest of the input without capturing it.
type anything struct{}

func (anything) expr(sb *strings.Builder) { sb.WriteString(".*") }
func (anything) collect(fields []field) []field { return fields }

// field is a named capture with the syntax it must match and how to decode it.
type field struct {
	name     string
	pattern  string
	optional bool // the value may be missing entirely
	na       bool // the literal NA stands for a missing value
	decode   decodeFunc
}

func (f field) expr(sb *strings.Builder) {
	capture := "(?P<" + f.name + ">" + f.pattern + ")"
	switch {
	case f.na:
		sb.WriteString("(?:NA|" + capture + ")")
	case f.optional:
		sb.WriteString(capture + "?")
	default:
		sb.WriteString(capture)
	}
}

func (f field) collect(fields []field) []field { return append(fields, f) }

// optionalGroup matches all of its parts or none of them.
type optionalGroup []part

func (g optionalGroup) expr(sb *strings.Builder) {
	sb.WriteString("(?:")
	for _, p := range g {
		p.expr(sb)
	}
	sb.WriteString(")?")
}

func (g optionalGroup) collect(fields []field) []field {
	for _, p := range g {
		fields = p.collect(fields)
	}
	return fields
}

// grammar is an ordered field table compiled to an anchored expression.
type grammar struct {
	name   string
	fields []field
	re     *regexp.Regexp
}

func newGrammar(name string, parts ...part) *grammar {
	var sb strings.Builder
	sb.WriteString("^(?:")
	var fields []field
	for _, p := range parts {
		p.expr(&sb)
		fields = p.collect(fields)
	}
	sb.WriteString(")$")

	return &grammar{
		name:   name,
		fields: fields,
		re:     regexp.MustCompile(sb.String()),
	}
}

// names returns the field names in decode order.
func (g *grammar) names() []string {
	names := make([]string, len(g.fields))
	for i, f := range g.fields {
		names[i] = f.name
	}
	return names
}

// match holds the raw captures of one sentence.
type match struct {
	g     *grammar
	input string
	loc   []int
}

// match applies the grammar to the whole of s.
func (g *grammar) match(s string) (*match, bool) {
	loc := g.re.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil, false
	}
	return &match{g: g, input: s, loc: loc}, true
}

// get returns the captured value and whether the field took part in the match.
func (m *match) get(name string) (string, bool) {
	i := m.g.re.SubexpIndex(name)
	if i < 0 || m.loc[2*i] < 0 {
		return "", false
	}
	return m.input[m.loc[2*i]:m.loc[2*i+1]], true
}

// decode runs every field decoder in grammar order.
func (g *grammar) decode(m *match, b *builder) error {
	for _, f := range g.fields {
		if f.decode == nil {
			continue
		}
		value, present := m.get(f.name)
		if err := f.decode(b, value, present); err != nil {
			return fieldError(f.name, err)
		}
	}
	return nil
}
