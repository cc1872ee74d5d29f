package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByID(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		id, err := IDOf(c)
		require.NoError(t, err)

		got, ok := ByID(id)
		require.True(t, ok)
		assert.Equal(t, c.Name(), got.Name())

		named, ok := ByName(c.Name())
		require.True(t, ok)
		assert.Equal(t, c, named)
	}

	_, ok := ByID(99)
	assert.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	v := map[string]any{"genre": "rock", "year": 1999}

	a, err := JSON{}.Marshal(v)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, GoJSON{}.Unmarshal(a, &out))
	assert.Equal(t, "rock", out["genre"])
	assert.InDelta(t, 1999, out["year"], 0)
}

func TestCodecs_WrapDecodeErrors(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var out map[string]any
			err := c.Unmarshal([]byte(`{"genre":`), &out)
			require.Error(t, err)
			assert.ErrorContains(t, err, "codec "+c.Name()+": decode 9-byte payload")

			_, err = c.Marshal(func() {})
			require.Error(t, err)
			assert.ErrorContains(t, err, "codec "+c.Name()+": encode payload")
		})
	}
}

func TestCompression(t *testing.T) {
	data := bytes.Repeat([]byte(`{"genre":"rock","year":1999},`), 512)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			out, ok, err := Compress(data, c)
			require.NoError(t, err)

			stored := CompressionNone
			if ok {
				stored = c
				assert.Less(t, len(out), len(data))
			}

			back, err := Decompress(out, stored, len(data))
			require.NoError(t, err)
			assert.Equal(t, data, back)
		})
	}
}

func TestCompression_Incompressible(t *testing.T) {
	data := []byte{0x01}
	out, ok, err := Compress(data, CompressionZSTD)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, data, out)
}

func TestDecompress_SizeMismatch(t *testing.T) {
	_, err := Decompress([]byte("abc"), CompressionNone, 4)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, c)

	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)

	_, err = ParseCompression("brotli")
	assert.Error(t, err)
}
