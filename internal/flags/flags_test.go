package flags

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTable = Table{
	"removed":   0,
	"invisible": 1,
	"pinned":    2,
	"archived":  7,
}

var testNames = []string{"removed", "invisible", "pinned", "archived"}

func ptr(v int64) *int64 { return &v }

func TestGet(t *testing.T) {
	tests := []struct {
		name  string
		bits  *int64
		index uint
		want  bool
	}{
		{"nil bitfield", nil, 0, false},
		{"zero bitfield", ptr(0), 3, false},
		{"least significant bit", ptr(0b1), 0, true},
		{"higher bit set", ptr(0b100), 2, true},
		{"higher bit unset", ptr(0b100), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Get(tt.bits, tt.index))
		})
	}
}

func TestDecodeNilIsAllFalse(t *testing.T) {
	m := Decode(nil, testTable)

	require.Len(t, m, len(testTable))
	for name, on := range m {
		assert.False(t, on, "flag %s", name)
	}
}

func TestEncodeRejectsUnknownName(t *testing.T) {
	_, err := Encode(map[string]bool{"bogus": true}, testTable)
	require.ErrorIs(t, err, ErrUnknownFlag)

	_, _, err = Patch(map[string]bool{"bogus": false}, testTable)
	require.ErrorIs(t, err, ErrUnknownFlag)
}

func TestEncodeIgnoresFalseFlags(t *testing.T) {
	bits, err := Encode(map[string]bool{"removed": false, "archived": true}, testTable)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<7), bits)
}

func TestRoundTrip(t *testing.T) {
	roundTrip := func(values [4]bool, present [4]bool) bool {
		m := make(map[string]bool)
		for i, name := range testNames {
			if present[i] {
				m[name] = values[i]
			}
		}

		bits, err := Encode(m, testTable)
		if err != nil {
			return false
		}
		decoded := Decode(&bits, testTable)

		for _, name := range testNames {
			if decoded[name] != m[name] {
				return false
			}
		}

		again, err := Encode(decoded, testTable)
		return err == nil && again == bits
	}

	require.NoError(t, quick.Check(roundTrip, nil))
}

func TestPatchPreservesUntouchedBits(t *testing.T) {
	// bit 12 is unknown to the table and must survive
	old := int64(1<<12 | 1<<1)

	set, mask, err := Patch(map[string]bool{"removed": true, "invisible": false}, testTable)
	require.NoError(t, err)
	assert.Equal(t, int64(0b11), mask)
	assert.Equal(t, int64(0b01), set)

	assert.Equal(t, int64(1<<12|1<<0), (old&^mask)|set)
	assert.Equal(t, int64(1), (0&^mask)|set)
}

func TestDomainFlags(t *testing.T) {
	assert.False(t, ItemFlagsFrom(nil).Invisible)
	assert.True(t, ItemFlagsFrom(ptr(1)).Invisible)
	assert.False(t, ItemFlagsFrom(ptr(0b10)).Invisible)

	assert.False(t, TransactionFlagsFrom(nil).Removed)
	assert.True(t, TransactionFlagsFrom(ptr(0b11)).Removed)
}
