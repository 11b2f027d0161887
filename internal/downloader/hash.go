package downloader

import (
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/sha3"
)

// digestReader computes a SHA3-256 hash of everything read through it
type digestReader struct {
	r io.Reader
	h hash.Hash
}

func newDigestReader(r io.Reader) *digestReader {
	h := sha3.New256()
	return &digestReader{r: io.TeeReader(r, h), h: h}
}

func (d *digestReader) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

// Sum returns the hex digest of the bytes read so far
func (d *digestReader) Sum() string {
	return fmt.Sprintf("%x", d.h.Sum(nil))
}
