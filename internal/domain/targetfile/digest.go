package targetfile

import (
	"crypto/md5" //nolint:gosec // integrity check requested by the provider, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DigestAlgorithm selects the content hash used for target file checksums.
type DigestAlgorithm string

const (
	DigestMD5    DigestAlgorithm = "md5"
	DigestSHA256 DigestAlgorithm = "sha256"
	DigestXXHash DigestAlgorithm = "xxhash"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *DigestAlgorithm) UnmarshalText(text []byte) error {
	v := DigestAlgorithm(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case DigestMD5, DigestSHA256, DigestXXHash:
		*a = v
		return nil
	default:
		return fmt.Errorf("invalid digest algorithm: %q", string(text))
	}
}

// NewHash returns a fresh hash for the algorithm; unknown values fall back to md5.
func (a DigestAlgorithm) NewHash() hash.Hash {
	switch a {
	case DigestSHA256:
		return sha256.New()
	case DigestXXHash:
		return xxhash.New()
	default:
		return md5.New() //nolint:gosec // see import
	}
}

var (
	// ErrDigestNotClosed is returned by Finalize when the writer is still open.
	ErrDigestNotClosed = errors.New("digest requested before writer was closed")
	// ErrDigestFinalized is returned by a second Finalize.
	ErrDigestFinalized = errors.New("digest already finalized")
	// ErrWriterClosed is returned by Write after Close.
	ErrWriterClosed = errors.New("digest writer is closed")
)

// DigestWriter writes to an underlying sink and hashes exactly the bytes the sink accepted.
// It is owned by a single export cycle and is not safe for concurrent use.
type DigestWriter struct {
	w         io.WriteCloser
	h         hash.Hash
	n         int64
	closed    bool
	finalized bool
}

// NewDigestWriter wraps w.
func NewDigestWriter(w io.WriteCloser, algo DigestAlgorithm) *DigestWriter {
	return &DigestWriter{w: w, h: algo.NewHash()}
}

func (d *DigestWriter) Write(p []byte) (int, error) {
	if d.closed {
		return 0, ErrWriterClosed
	}
	n, err := d.w.Write(p)
	if n > 0 {
		d.h.Write(p[:n])
		d.n += int64(n)
	}
	return n, err
}

// Close closes the underlying sink. Only the first call reaches the sink.
func (d *DigestWriter) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.w.Close()
}

// BytesWritten returns the number of bytes accepted by the sink.
func (d *DigestWriter) BytesWritten() int64 {
	return d.n
}

// Finalize returns the lowercase hex digest. It must be called exactly once, after Close.
func (d *DigestWriter) Finalize() (string, error) {
	if !d.closed {
		return "", ErrDigestNotClosed
	}
	if d.finalized {
		return "", ErrDigestFinalized
	}
	d.finalized = true
	return hex.EncodeToString(d.h.Sum(nil)), nil
}

// FileDigest recomputes the digest of a file already on disk.
func FileDigest(path string, algo DigestAlgorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := algo.NewHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
