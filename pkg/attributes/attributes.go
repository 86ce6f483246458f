// Package attributes holds the vendor specific values that accompany a position
// but have no column of their own. Entries keep their insertion order and
// serialize to a single JSON object.
package attributes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
)

// KeyProtocol is always the first entry of a set.
const KeyProtocol = "protocol"

// Kind is the shape of a stored value.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// Value is a string, integer or decimal attribute value.
type Value struct {
	kind Kind
	str  string
	num  int64
	dec  float64
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, num: i} }

// Float returns a decimal value.
func Float(f float64) Value { return Value{kind: KindFloat, dec: f} }

// Kind reports the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// String formats the value as text.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return formatFloat(v.dec)
	}
	return v.str
}

// Int returns the integer and whether the value is one.
func (v Value) Int() (int64, bool) { return v.num, v.kind == KindInt }

// Float returns the decimal and whether the value is one.
func (v Value) Float() (float64, bool) { return v.dec, v.kind == KindFloat }

// MarshalJSON keeps decimals distinguishable from integers.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.num, 10)), nil
	case KindFloat:
		return []byte(formatFloat(v.dec)), nil
	}
	return json.Marshal(v.str)
}

// Set is an ordered collection of attributes.
type Set struct {
	entries *orderedmap.OrderedMap[string, Value]
}

// New creates a set tagged with the protocol that produced it.
func New(protocol string) *Set {
	s := &Set{entries: orderedmap.NewOrderedMap[string, Value]()}
	s.Put(KeyProtocol, String(protocol))
	return s
}

// Put stores a value. Re-setting a key keeps its original position.
func (s *Set) Put(key string, v Value) {
	s.entries.Set(key, v)
}

// PutString stores a string value.
func (s *Set) PutString(key, v string) { s.Put(key, String(v)) }

// PutInt stores an integer value.
func (s *Set) PutInt(key string, v int64) { s.Put(key, Int(v)) }

// PutFloat stores a decimal value.
func (s *Set) PutFloat(key string, v float64) { s.Put(key, Float(v)) }

// PutOptional stores v only when present; absent values are never stored.
func (s *Set) PutOptional(key, v string, present bool) {
	if present {
		s.PutString(key, v)
	}
}

// Get returns the value stored under key.
func (s *Set) Get(key string) (Value, bool) {
	return s.entries.Get(key)
}

// Len returns the number of entries.
func (s *Set) Len() int {
	return s.entries.Len()
}

// Keys returns the keys in insertion order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, s.entries.Len())
	for el := s.entries.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// MarshalJSON encodes the set as a JSON object in insertion order.
func (s *Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for el := s.entries.Front(); el != nil; el = el.Next() {
		if el != s.entries.Front() {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		value, err := el.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String returns the serialized form attached to a position.
func (s *Set) String() string {
	b, err := s.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Parse reads a serialized set back, preserving order and value kinds.
func Parse(blob string) (*Set, error) {
	dec := json.NewDecoder(strings.NewReader(blob))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("attributes: expected JSON object")
	}

	s := &Set{entries: orderedmap.NewOrderedMap[string, Value]()}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("attributes: unexpected key %v", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		switch v := tok.(type) {
		case string:
			s.PutString(key, v)
		case json.Number:
			if strings.ContainsAny(v.String(), ".eE") {
				f, err := v.Float64()
				if err != nil {
					return nil, err
				}
				s.PutFloat(key, f)
			} else {
				i, err := v.Int64()
				if err != nil {
					return nil, err
				}
				s.PutInt(key, i)
			}
		default:
			return nil, fmt.Errorf("attributes: unsupported value for %q", key)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return s, nil
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
