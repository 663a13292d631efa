package ifc

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the kind of a STEP parameter value.
type Kind int

const (
	KindNull Kind = iota
	KindDerived
	KindString
	KindInteger
	KindReal
	KindEnum
	KindRef
	KindList
	KindTyped
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindDerived:
		return "derived"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindEnum:
		return "enum"
	case KindRef:
		return "reference"
	case KindList:
		return "list"
	case KindTyped:
		return "typed"
	default:
		return "unknown"
	}
}

// Value is a single STEP parameter.
//
// Str holds string and enumeration text, and the type keyword of a typed
// value. A typed value such as IFCLABEL('x') keeps its wrapped value as the
// single element of List.
type Value struct {
	Kind Kind
	Str  string
	Int  int64
	Real float64
	Ref  int
	List []Value
}

// Unwrap returns the wrapped value of a typed value, or v itself.
func (v Value) Unwrap() Value {
	for v.Kind == KindTyped && len(v.List) == 1 {
		v = v.List[0]
	}
	return v
}

// IsUnset reports whether v is $ or *.
func (v Value) IsUnset() bool {
	return v.Kind == KindNull || v.Kind == KindDerived
}

// String renders v in STEP notation.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "$"
	case KindDerived:
		return "*"
	case KindString:
		return "'" + strings.ReplaceAll(v.Str, "'", "''") + "'"
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case KindEnum:
		return "." + v.Str + "."
	case KindRef:
		return "#" + strconv.Itoa(v.Ref)
	case KindList, KindTyped:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.String()
		}
		return v.Str + "(" + strings.Join(parts, ",") + ")"
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

// refs appends every entity reference contained in v to dst.
func (v Value) refs(dst []int) []int {
	switch v.Kind {
	case KindRef:
		return append(dst, v.Ref)
	case KindList, KindTyped:
		for _, item := range v.List {
			dst = item.refs(dst)
		}
	}
	return dst
}
