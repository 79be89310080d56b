// Package compare decides whether two files hold the same content.
package compare

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// DefaultChunkSize is the read size used for both streams.
const DefaultChunkSize = 64 * 1024

// Method selects how file content is compared.
type Method int

const (
	// Hash compares SHA-256 digests of both files.
	Hash Method = iota
	// ByteCompare compares both files chunk by chunk.
	ByteCompare
)

func (m Method) String() string {
	switch m {
	case Hash:
		return "hash"
	case ByteCompare:
		return "bytes"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod accepts the names used by flags and settings files.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hash", "sha256", "sha-256":
		return Hash, nil
	case "bytes", "byte", "byte-compare", "direct", "direct-comparison":
		return ByteCompare, nil
	}
	return Hash, fmt.Errorf("unknown compare method %q", s)
}

func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Comparator reads files through an afero.Fs.
type Comparator struct {
	fs        afero.Fs
	chunkSize int
}

type Option func(*Comparator)

// WithChunkSize overrides DefaultChunkSize. Non-positive values are ignored.
func WithChunkSize(n int) Option {
	return func(c *Comparator) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

func New(fs afero.Fs, opts ...Option) *Comparator {
	c := &Comparator{fs: fs, chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Equal reports whether pathA and pathB have identical content under m.
// Files of different size are unequal without reading any data.
func (c *Comparator) Equal(pathA, pathB string, m Method) (equal bool, err error) {
	fa, err := c.fs.Open(pathA)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", pathA, err)
	}
	defer closeInto(fa, &err)

	fb, err := c.fs.Open(pathB)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", pathB, err)
	}
	defer closeInto(fb, &err)

	ia, err := fa.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", pathA, err)
	}
	ib, err := fb.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", pathB, err)
	}
	if ia.Size() != ib.Size() {
		return false, nil
	}

	switch m {
	case Hash:
		return c.hashEqual(fa, fb)
	case ByteCompare:
		return c.streamChunks(fa, fb, bytes.Equal)
	default:
		return false, fmt.Errorf("unknown compare method %d", int(m))
	}
}

// Digest returns the SHA-256 of the file at path.
func (c *Comparator) Digest(path string) (sum []byte, err error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer closeInto(f, &err)

	h := sha256.New()
	buf := make([]byte, c.chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

func (c *Comparator) hashEqual(a, b io.Reader) (bool, error) {
	ha, hb := sha256.New(), sha256.New()
	same, err := c.streamChunks(a, b, func(ca, cb []byte) bool {
		feed(ha, ca)
		feed(hb, cb)
		return true
	})
	if err != nil || !same {
		return false, err
	}
	return bytes.Equal(ha.Sum(nil), hb.Sum(nil)), nil
}

func (c *Comparator) streamChunks(a, b io.Reader, visit func(ca, cb []byte) bool) (bool, error) {
	bufA := make([]byte, c.chunkSize)
	bufB := make([]byte, c.chunkSize)
	for {
		na, errA := io.ReadFull(a, bufA)
		eofA, errA := splitEOF(errA)
		if errA != nil {
			return false, fmt.Errorf("read: %w", errA)
		}
		nb, errB := io.ReadFull(b, bufB)
		eofB, errB := splitEOF(errB)
		if errB != nil {
			return false, fmt.Errorf("read: %w", errB)
		}

		if na != nb {
			return false, nil
		}
		if !visit(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if eofA || eofB {
			return eofA == eofB, nil
		}
	}
}

func splitEOF(err error) (bool, error) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true, nil
	}
	return false, err
}

func feed(h hash.Hash, p []byte) {
	_, _ = h.Write(p)
}

func closeInto(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
