// Package flags packs small sets of named booleans into a single integer bitfield.
//
// A flag is identified by a stable bit index counted from the least significant
// bit. Indices are append-only: a new flag always takes a new index, so a stored
// bitfield stays readable forever. A NULL bitfield reads as all flags false.
package flags

import (
	"errors"
	"fmt"
)

// ErrUnknownFlag is returned when a flag name is not part of a Table.
// Callers that accept flag names from clients wrap it as an invalid argument.
var ErrUnknownFlag = errors.New("unknown flag")

// Table maps flag names to their bit index.
type Table map[string]uint

// Get returns the bit at index. A nil bitfield is treated as zero.
func Get(bits *int64, index uint) bool {
	if bits == nil {
		return false
	}
	return (*bits>>index)&1 == 1
}

// Encode sets the bit of every flag present and true in m.
// Absent and false flags stay 0.
func Encode(m map[string]bool, t Table) (int64, error) {
	var bits int64
	for name, on := range m {
		index, ok := t[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownFlag, name)
		}
		if on {
			bits |= 1 << index
		}
	}
	return bits, nil
}

// Decode returns every flag of the table, false unless its bit is set.
func Decode(bits *int64, t Table) map[string]bool {
	m := make(map[string]bool, len(t))
	for name, index := range t {
		m[name] = Get(bits, index)
	}
	return m
}

// Patch converts a partial flag map into the bits to set and the mask of bits
// it touches. Applying it as (old &^ mask) | set, in Go or as
// (COALESCE(flags, 0) & ~mask) | set in SQL, leaves every other bit,
// including ones unknown to the table, unchanged.
func Patch(patch map[string]bool, t Table) (set, mask int64, err error) {
	set, err = Encode(patch, t)
	if err != nil {
		return 0, 0, err
	}
	touched := make(map[string]bool, len(patch))
	for name := range patch {
		touched[name] = true
	}
	mask, err = Encode(touched, t)
	return set, mask, err
}
