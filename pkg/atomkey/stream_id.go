package atomkey

import (
	"cmp"
	"strconv"
)

// StreamID identifies a stream (e.g., a symbol) to which a key
// belongs. It holds either a numeric or a string identifier. When
// compared, numeric identifiers sort before string identifiers.
type StreamID struct {
	isString bool
	numeric  int64
	str      string
}

// NewNumericStreamID creates a StreamID holding a numeric identifier.
func NewNumericStreamID(id int64) StreamID {
	return StreamID{numeric: id}
}

// NewStringStreamID creates a StreamID holding a string identifier.
func NewStringStreamID(id string) StreamID {
	return StreamID{isString: true, str: id}
}

// IsString returns whether the identifier is a string.
func (id StreamID) IsString() bool {
	return id.isString
}

// Numeric returns the value of a numeric identifier.
func (id StreamID) Numeric() (int64, bool) {
	return id.numeric, !id.isString
}

// StringValue returns the value of a string identifier.
func (id StreamID) StringValue() (string, bool) {
	return id.str, id.isString
}

// Compare returns -1, 0 or 1, depending on whether id sorts before,
// equal to or after other.
func (id StreamID) Compare(other StreamID) int {
	if id.isString != other.isString {
		if id.isString {
			return 1
		}
		return -1
	}
	if id.isString {
		return cmp.Compare(id.str, other.str)
	}
	return cmp.Compare(id.numeric, other.numeric)
}

func (id StreamID) String() string {
	if id.isString {
		return id.str
	}
	return strconv.FormatInt(id.numeric, 10)
}
