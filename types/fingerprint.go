package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/bits"
)

// FingerprintBits is the fingerprint length
const FingerprintBits = 256

// Fingerprint is a 256-bit perceptual hash, most significant word first
type Fingerprint [FingerprintBits / 64]uint64

// Distance returns the Hamming distance between two fingerprints
func (f Fingerprint) Distance(other Fingerprint) int {
	d := 0
	for i := range f {
		d += bits.OnesCount64(f[i] ^ other[i])
	}
	return d
}

// String renders the fingerprint as 64 hex digits
func (f Fingerprint) String() string {
	var buf [FingerprintBits / 8]byte
	for i, w := range f {
		binary.BigEndian.PutUint64(buf[i*8:], w)
	}
	return hex.EncodeToString(buf[:])
}

// ParseFingerprint is the inverse of Fingerprint.String
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	raw, err := hex.DecodeString(s)
	if err != nil {
		return f, fmt.Errorf("invalid fingerprint %q: %w", s, err)
	}
	if len(raw) != FingerprintBits/8 {
		return f, fmt.Errorf("invalid fingerprint length %d, want %d bytes", len(raw), FingerprintBits/8)
	}
	for i := range f {
		f[i] = binary.BigEndian.Uint64(raw[i*8:])
	}
	return f, nil
}
