package duplicates

import (
	"encoding/hex"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// Digest is the 256-bit fingerprint of a normalized function.
type Digest [32]byte

// Hash returns the BLAKE3 digest of canonical text.
func Hash(canonical string) Digest {
	return blake3.Sum256([]byte(canonical))
}

// String returns the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, for display.
func (d Digest) Short() string {
	return d.String()[:12]
}

// IsZero reports whether the digest is unset.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(d) {
		return fmt.Errorf("digest: want %d hex characters, got %d", 2*len(d), len(text))
	}
	_, err := hex.Decode(d[:], text)
	return err
}

// GroupID derives a compact numeric identifier for the group sharing d.
func GroupID(d Digest) uint64 {
	return xxhash.Sum64(d[:])
}
