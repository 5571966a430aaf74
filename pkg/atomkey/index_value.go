package atomkey

import (
	"cmp"
	"strconv"
)

// IndexValueKind enumerates the types of values an IndexValue may
// hold. The numeric value of a kind determines how values of different
// kinds compare.
type IndexValueKind int

const (
	// IndexValueTimestamp is a signed 64-bit timestamp. It is the
	// kind of the zero IndexValue.
	IndexValueTimestamp IndexValueKind = iota
	// IndexValueInteger is a signed 64-bit integer.
	IndexValueInteger
	// IndexValueString is an arbitrary string.
	IndexValueString
)

// IndexValue is the boundary of the range of index values covered by a
// key. The zero value is a timestamp equal to zero.
type IndexValue struct {
	kind    IndexValueKind
	numeric int64
	str     string
}

// NewTimestampIndexValue creates an IndexValue holding a timestamp.
func NewTimestampIndexValue(ts int64) IndexValue {
	return IndexValue{kind: IndexValueTimestamp, numeric: ts}
}

// NewIntegerIndexValue creates an IndexValue holding an integer.
func NewIntegerIndexValue(v int64) IndexValue {
	return IndexValue{kind: IndexValueInteger, numeric: v}
}

// NewStringIndexValue creates an IndexValue holding a string.
func NewStringIndexValue(s string) IndexValue {
	return IndexValue{kind: IndexValueString, str: s}
}

// Kind returns the type of value held.
func (v IndexValue) Kind() IndexValueKind {
	return v.kind
}

// Timestamp returns the value if it is a timestamp.
func (v IndexValue) Timestamp() (int64, bool) {
	return v.numeric, v.kind == IndexValueTimestamp
}

// Integer returns the value if it is an integer.
func (v IndexValue) Integer() (int64, bool) {
	return v.numeric, v.kind == IndexValueInteger
}

// StringValue returns the value if it is a string.
func (v IndexValue) StringValue() (string, bool) {
	return v.str, v.kind == IndexValueString
}

// Compare returns -1, 0 or 1, depending on whether v sorts before,
// equal to or after other. Values of different kinds are ordered by
// kind.
func (v IndexValue) Compare(other IndexValue) int {
	if c := cmp.Compare(v.kind, other.kind); c != 0 {
		return c
	}
	if v.kind == IndexValueString {
		return cmp.Compare(v.str, other.str)
	}
	return cmp.Compare(v.numeric, other.numeric)
}

// Tokenized returns the textual representation of the value, as used
// in the display format of keys.
func (v IndexValue) Tokenized() string {
	if v.kind == IndexValueString {
		return v.str
	}
	return strconv.FormatInt(v.numeric, 10)
}

// IndexRange is a range of index values. Ranges of keys are half-open,
// meaning EndClosed is false.
type IndexRange struct {
	Start     IndexValue
	End       IndexValue
	EndClosed bool
}
