// Package schema describes the physical layout of tables as known to relorm.
package schema

import "fmt"

// Kind identifies the scalar family of a field's type.
type Kind string

const (
	// KindInteger is a 32 bit integer.
	KindInteger Kind = "int"
	// KindBigInteger is a 64 bit integer.
	KindBigInteger Kind = "bigint"
	// KindString is a bounded character column.
	KindString Kind = "string"
	// KindText is an unbounded character column.
	KindText Kind = "text"
	// KindFloat is a double precision float.
	KindFloat Kind = "float"
	// KindBool is a boolean.
	KindBool Kind = "bool"
	// KindDateTime is a date plus time of day.
	KindDateTime Kind = "datetime"
	// KindEnum is one of a fixed set of strings.
	KindEnum Kind = "enum"
)

// DefaultStringLength is used by String when no positive length is given.
const DefaultStringLength = 255

// Type is the scalar type descriptor of a field.
type Type struct {
	Kind     Kind
	Length   int      // KindString only
	Unsigned bool     // integer kinds only
	Options  []string // KindEnum only
}

// Integer returns a 32 bit integer type.
func Integer(unsigned bool) Type {
	return Type{Kind: KindInteger, Unsigned: unsigned}
}

// BigInteger returns a 64 bit integer type.
func BigInteger(unsigned bool) Type {
	return Type{Kind: KindBigInteger, Unsigned: unsigned}
}

// String returns a bounded string type.
func String(length int) Type {
	if length <= 0 {
		length = DefaultStringLength
	}
	return Type{Kind: KindString, Length: length}
}

// Text returns an unbounded string type.
func Text() Type { return Type{Kind: KindText} }

// Float returns a double precision type.
func Float() Type { return Type{Kind: KindFloat} }

// Bool returns a boolean type.
func Bool() Type { return Type{Kind: KindBool} }

// DateTime returns a timestamp type.
func DateTime() Type { return Type{Kind: KindDateTime} }

// Enum returns an enumeration over options.
func Enum(options ...string) Type {
	return Type{Kind: KindEnum, Options: options}
}

// IsInteger reports whether the type is one of the integer kinds.
func (t Type) IsInteger() bool {
	return t.Kind == KindInteger || t.Kind == KindBigInteger
}

// String returns a readable representation, e.g. "string(255)".
func (t Type) String() string {
	switch t.Kind {
	case KindString:
		return fmt.Sprintf("string(%d)", t.Length)
	case KindInteger, KindBigInteger:
		if t.Unsigned {
			return string(t.Kind) + " unsigned"
		}
		return string(t.Kind)
	case KindEnum:
		return fmt.Sprintf("enum%q", t.Options)
	default:
		return string(t.Kind)
	}
}
