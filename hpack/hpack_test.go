package hpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticTableIndices(t *testing.T) {
	f, ok := lookup(&dynamicTable{}, 1)
	require.True(t, ok)
	assert.Equal(t, ":authority", string(f.Name))

	f, ok = lookup(&dynamicTable{}, 8)
	require.True(t, ok)
	assert.Equal(t, ":status", string(f.Name))
	assert.Equal(t, "200", string(f.Value))
}

func TestDynamicTableEvictsFromTail(t *testing.T) {
	var tbl dynamicTable
	tbl.setLimit(Field{Name: []byte("a"), Value: []byte("1")}.Size() * 2)

	tbl.insert(Field{Name: []byte("a"), Value: []byte("1")})
	tbl.insert(Field{Name: []byte("b"), Value: []byte("2")})
	require.Equal(t, 2, tbl.len())

	tbl.insert(Field{Name: []byte("c"), Value: []byte("3")})
	require.Equal(t, 2, tbl.len())

	newest, ok := tbl.at(0)
	require.True(t, ok)
	assert.Equal(t, "c", string(newest.Name))
}

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 30, 31, 32, 127, 128, 1337, 1 << 20, 1 << 40}
	for _, n := range cases {
		buf := appendInt(nil, 0, 5, n)
		rest, got, err := readVarint(5, buf)
		require.NoError(t, err)
		assert.Equal(t, n, got)
		assert.Empty(t, rest)
	}
}

func TestHuffmanRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"www.example.com",
		"no-cache",
		"custom-key",
		"custom-value",
		"The quick brown fox jumps over the lazy dog 1234567890",
	}

	for _, s := range cases {
		enc := huffmanEncode(nil, []byte(s))
		dec, err := huffmanDecode(nil, enc)
		require.NoError(t, err)
		assert.Equal(t, s, string(dec))
		assert.Equal(t, huffmanEncodedLen([]byte(s)), len(enc))
	}
}

func TestEncodeDecodeRoundTripStaticOnly(t *testing.T) {
	enc := NewEncoder(4096)
	dec := NewDecoder(4096)

	fields := []Field{
		{Name: []byte(":method"), Value: []byte("GET")},
		{Name: []byte(":scheme"), Value: []byte("https")},
		{Name: []byte(":path"), Value: []byte("/")},
		{Name: []byte(":authority"), Value: []byte("www.example.com")},
	}

	wire := enc.Encode(nil, fields)
	got, err := dec.Decode(nil, wire)
	require.NoError(t, err)
	require.Len(t, got, len(fields))
	for i, f := range fields {
		assert.Equal(t, string(f.Name), string(got[i].Name))
		assert.Equal(t, string(f.Value), string(got[i].Value))
	}
}

func TestEncodeDecodeRoundTripWithDynamicReuse(t *testing.T) {
	enc := NewEncoder(4096)
	dec := NewDecoder(4096)

	first := []Field{
		{Name: []byte("custom-key"), Value: []byte("custom-value")},
		{Name: []byte(":path"), Value: []byte("/resource")},
	}
	second := []Field{
		{Name: []byte("custom-key"), Value: []byte("custom-value")},
		{Name: []byte(":path"), Value: []byte("/resource2")},
	}

	wire1 := enc.Encode(nil, first)
	got1, err := dec.Decode(nil, wire1)
	require.NoError(t, err)
	require.Len(t, got1, 2)

	wire2 := enc.Encode(nil, second)
	got2, err := dec.Decode(nil, wire2)
	require.NoError(t, err)
	require.Len(t, got2, 2)
	assert.Equal(t, "custom-value", string(got2[0].Value))
	assert.Equal(t, "/resource2", string(got2[1].Value))

	// Second block's custom-key should have been sent as an indexed field,
	// not a fresh literal, since it was already in the dynamic table.
	assert.Less(t, len(wire2), len(wire1))
}

func TestPendingSizeUpdateShrinkThenGrow(t *testing.T) {
	enc := NewEncoder(4096)
	dec := NewDecoder(4096)

	enc.SetMaxDynamicTableSize(100)
	enc.SetMaxDynamicTableSize(2048)

	fields := []Field{{Name: []byte("x"), Value: []byte("y")}}
	wire := enc.Encode(nil, fields)

	got, err := dec.Decode(nil, wire)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2048, dec.table.limit)
}

func TestDecoderRejectsTableSizeAboveNegotiatedMax(t *testing.T) {
	dec := NewDecoder(100)
	wire := appendInt(nil, 0x20, 5, 4096)
	_, err := dec.Decode(nil, wire)
	assert.ErrorIs(t, err, errTableSizeTooLarge)
}
