package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Owner  [20]byte
	Value  uint64
	Labels map[string]uint64
}

func TestMarshal_Deterministic(t *testing.T) {
	a := sample{Value: 7, Labels: map[string]uint64{"b": 2, "a": 1, "c": 3}}
	b := sample{Value: 7, Labels: map[string]uint64{"c": 3, "a": 1, "b": 2}}

	encA, err := Marshal(a)
	require.NoError(t, err)
	encB, err := Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, encA, encB)
}

func TestUnmarshal_ByteArrayField(t *testing.T) {
	in := sample{Value: 42}
	for i := range in.Owner {
		in.Owner[i] = 0xAB
	}
	data, err := Marshal(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in.Owner, out.Owner)
	assert.Equal(t, in.Value, out.Value)
}

func TestUnmarshal_Garbage(t *testing.T) {
	var out sample
	assert.Error(t, Unmarshal([]byte{0xff, 0x00, 0x13}, &out))
}
