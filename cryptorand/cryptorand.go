// Package cryptorand provides a math/rand Source backed by crypto/rand, so
// gameplay randomness (board layouts, game codes) isn't seedable or
// predictable.
package cryptorand

import (
	"crypto/rand"
	"encoding/binary"
)

func NewSource() Source {
	return Source{}
}

// Source implements math/rand's Source64.
type Source struct{}

func (Source) Uint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func (s Source) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

func (Source) Seed(int64) {}
