package mapping

import (
	"errors"
)

// LiteralSourcePath is the sentinel source path marking a literal rule:
// the rule writes Field.Literal instead of resolving a path.
const LiteralSourcePath = "$value"

// ---------------------------------------------------------------------------
// ValueType
// ---------------------------------------------------------------------------

// ValueType selects the coercion applied to a resolved source value
type ValueType string

const (
	// TypeString trims strings; composite values are JSON-serialized
	TypeString ValueType = "STRING"
	// TypeFloat casts numeric values; nil stays nil, never zero
	TypeFloat ValueType = "FLOAT"
	// TypeBoolean maps "0","false","no","" (case-insensitive) to false
	TypeBoolean ValueType = "BOOLEAN"
	// TypeDateUnix parses date strings to epoch seconds at the rule's
	// time of day in the tenant's time zone
	TypeDateUnix ValueType = "DATE_UNIX"
	// TypeArray passes lists through; non-list strings split on ","
	TypeArray ValueType = "ARRAY"
	// TypeCurrency lower-cases a 3-letter currency code
	TypeCurrency ValueType = "CURRENCY"
	// TypeCountry resolves alpha-2, alpha-3 or free-text country names
	TypeCountry ValueType = "COUNTRY"
	// TypeEmailList parses a free-text address string into a list
	TypeEmailList ValueType = "EMAIL_LIST"
)

// IsValid returns true if the value type is valid
func (t ValueType) IsValid() bool {
	switch t {
	case TypeString, TypeFloat, TypeBoolean, TypeDateUnix,
		TypeArray, TypeCurrency, TypeCountry, TypeEmailList:
		return true
	default:
		return false
	}
}

// String returns the string representation of ValueType
func (t ValueType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// NullBehavior
// ---------------------------------------------------------------------------

// NullBehavior controls what happens when a coerced value is nil
type NullBehavior string

const (
	// NullSet writes the nil explicitly, letting loaders distinguish
	// "cleared" from "never mapped"
	NullSet NullBehavior = "SET"
	// NullIgnore skips the destination write entirely
	NullIgnore NullBehavior = "IGNORE"
)

// IsValid returns true if the behavior is valid
func (b NullBehavior) IsValid() bool {
	return b == NullSet || b == NullIgnore
}

// ---------------------------------------------------------------------------
// Field
// ---------------------------------------------------------------------------

// Field is one declarative mapping rule. Paths are "/"-delimited; a
// segment suffixed "[]" maps over each element of a list, a segment
// suffixed "()" (model source only) invokes a zero-arg accessor.
type Field struct {
	// SourcePath locates the value in the raw record, or LiteralSourcePath
	SourcePath string
	// DestinationPath locates the value in the output field bag
	DestinationPath string
	// Type selects the value coercion
	Type ValueType
	// Nulls controls whether nil coercion results are written
	Nulls NullBehavior
	// Literal is the value written by literal rules
	Literal any
	// TimeOfDay is the hour of day applied by TypeDateUnix coercion
	TimeOfDay int
}

// Validate checks the rule is well formed
func (f Field) Validate() error {
	if f.SourcePath == "" {
		return errors.New("mapping: source path is required")
	}
	if f.DestinationPath == "" {
		return errors.New("mapping: destination path is required")
	}
	if !f.Type.IsValid() {
		return errors.New("mapping: invalid value type")
	}
	if f.Nulls != "" && !f.Nulls.IsValid() {
		return errors.New("mapping: invalid null behavior")
	}
	if f.TimeOfDay < 0 || f.TimeOfDay > 23 {
		return errors.New("mapping: time of day out of range")
	}
	return nil
}

// IsLiteral reports whether the rule writes a literal value
func (f Field) IsLiteral() bool {
	return f.SourcePath == LiteralSourcePath
}

// Literal builds a literal rule writing value at destinationPath
func Literal(destinationPath string, valueType ValueType, value any) Field {
	return Field{
		SourcePath:      LiteralSourcePath,
		DestinationPath: destinationPath,
		Type:            valueType,
		Literal:         value,
	}
}
