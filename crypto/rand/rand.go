// AES-CTR based PRG, adapted from https://github.com/henrycg/prio/blob/master/utils/rand.go
/*

Copyright (c) 2016, Henry Corrigan-Gibbs

Permission to use, copy, modify, and/or distribute this software for any
purpose with or without fee is hereby granted, provided that the above
copyright notice and this permission notice appear in all copies.

THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.

*/

package rand

import (
	"bufio"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"io"
	mrand "math/rand"
)

type PRGKey [aes.BlockSize]byte

const bufSize = 8192

// We use AES-CTR to generate pseudo-random numbers using a stream cipher.
// Go's native rand.Reader is extremely slow because it makes tons of system
// calls to generate a small number of pseudo-random bytes.
//
// Unlike the upstream code, readers here are _not_ synchronized: callers
// needing concurrency instantiate one PRG per goroutine.
type PRGReader struct {
	Key    PRGKey
	stream cipher.Stream
}

// Buffered wrapper around a PRGReader that also implements mrand.Source64
type BufPRGReader struct {
	Key    PRGKey
	stream *bufio.Reader
}

func NewPRG(key *PRGKey) *PRGReader {
	out := new(PRGReader)
	out.Key = *key

	var iv [aes.BlockSize]byte
	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}

	out.stream = cipher.NewCTR(block, iv[:])
	return out
}

func RandomPRGKey() *PRGKey {
	var key PRGKey
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		panic(err)
	}
	return &key
}

func RandomPRG() *PRGReader {
	return NewPRG(RandomPRGKey())
}

func (s *PRGReader) Read(p []byte) (int, error) {
	if len(p) < aes.BlockSize {
		var buf [aes.BlockSize]byte
		s.stream.XORKeyStream(buf[:], buf[:])
		copy(p[:], buf[:])
	} else {
		s.stream.XORKeyStream(p, p)
	}
	return len(p), nil
}

func NewBufPRG(prg *PRGReader) *BufPRGReader {
	out := new(BufPRGReader)
	out.Key = prg.Key
	out.stream = bufio.NewReaderSize(prg, bufSize)
	return out
}

func NewRandomBufPRG() *BufPRGReader {
	return NewBufPRG(RandomPRG())
}

func (b *BufPRGReader) Read(p []byte) (int, error) {
	return b.stream.Read(p)
}

func (b *BufPRGReader) Uint64() uint64 {
	var buf [8]byte
	if _, err := io.ReadFull(b.stream, buf[:]); err != nil {
		panic("Catastrophic randomness failure!")
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func (b *BufPRGReader) Int63() int64 {
	return int64(b.Uint64() % (1 << 63))
}

func (b *BufPRGReader) Seed(int64) {
	panic("Should never call seed")
}

var _ mrand.Source64 = (*BufPRGReader)(nil)
