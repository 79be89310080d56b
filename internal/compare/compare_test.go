package compare

import (
	"crypto/sha256"
	"math/rand"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func TestEqual(t *testing.T) {
	type test struct {
		name string
		a, b []byte
		want bool
	}

	tests := []test{
		{name: "identical", a: []byte("hello"), b: []byte("hello"), want: true},
		{name: "both_empty", a: nil, b: nil, want: true},
		{name: "same_size_different_bytes", a: []byte("hello"), b: []byte("hellO"), want: false},
		{name: "different_length", a: []byte("hello"), b: []byte("hello world"), want: false},
		{name: "one_empty", a: nil, b: []byte("x"), want: false},
		{name: "exact_chunk_multiple", a: []byte("abcdefgh"), b: []byte("abcdefgh"), want: true},
		{name: "differs_in_last_chunk", a: []byte("abcdefghi"), b: []byte("abcdefghj"), want: false},
	}

	for _, method := range []Method{Hash, ByteCompare} {
		for _, tt := range tests {
			t.Run(method.String()+"/"+tt.name, func(t *testing.T) {
				fs := afero.NewMemMapFs()
				writeFile(t, fs, "/a", tt.a)
				writeFile(t, fs, "/b", tt.b)

				// A small chunk forces several reads per file.
				c := New(fs, WithChunkSize(4))
				got, err := c.Equal("/a", "/b", method)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestEqual_MissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/a", []byte("data"))
	c := New(fs)

	for _, method := range []Method{Hash, ByteCompare} {
		_, err := c.Equal("/a", "/missing", method)
		assert.Error(t, err)
		_, err = c.Equal("/missing", "/a", method)
		assert.Error(t, err)
	}
}

func TestEqual_UnknownMethod(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/a", []byte("x"))
	writeFile(t, fs, "/b", []byte("x"))

	_, err := New(fs).Equal("/a", "/b", Method(42))
	assert.Error(t, err)
}

func TestHashAndByteCompareAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	fs := afero.NewMemMapFs()
	c := New(fs, WithChunkSize(16))

	for i := 0; i < 200; i++ {
		a := make([]byte, rng.Intn(100))
		rng.Read(a)

		var b []byte
		switch rng.Intn(3) {
		case 0:
			b = append([]byte(nil), a...)
		case 1:
			b = append([]byte(nil), a...)
			if len(b) > 0 {
				b[rng.Intn(len(b))] ^= 0xff
			}
		default:
			b = make([]byte, rng.Intn(100))
			rng.Read(b)
		}

		writeFile(t, fs, "/a", a)
		writeFile(t, fs, "/b", b)

		byHash, err := c.Equal("/a", "/b", Hash)
		require.NoError(t, err)
		byBytes, err := c.Equal("/a", "/b", ByteCompare)
		require.NoError(t, err)

		require.Equalf(t, byBytes, byHash, "iteration %d: len(a)=%d len(b)=%d", i, len(a), len(b))
		require.Equal(t, string(a) == string(b), byBytes)
	}
}

func TestDigest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/a", []byte("hi"))

	sum, err := New(fs, WithChunkSize(1)).Digest("/a")
	require.NoError(t, err)
	want := sha256.Sum256([]byte("hi"))
	assert.Equal(t, want[:], sum)
}

func TestParseMethod(t *testing.T) {
	for _, in := range []string{"hash", "SHA-256", "sha256", " Hash "} {
		m, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, Hash, m, in)
	}
	for _, in := range []string{"bytes", "byte-compare", "Direct"} {
		m, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, ByteCompare, m, in)
	}

	_, err := ParseMethod("md5")
	assert.Error(t, err)

	var m Method
	require.NoError(t, m.UnmarshalText([]byte("bytes")))
	assert.Equal(t, ByteCompare, m)
	text, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(text))
}
