// Package shacore implements FIPS 180-4 SHA-256 from scratch, matching the
// streaming context/transform/update/final shape of the reference
// implementation, exposed as a standard hash.Hash.
package shacore

import "hash"

// Size is the SHA-256 digest length in bytes.
const Size = 32

// BlockSize is the SHA-256 internal block size in bytes.
const BlockSize = 64

var k256 = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

var initState = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// Digest is a streaming SHA-256 context, mirroring the reference tool's
// Sha256Ctx (state/bitlen/data/datalen) field for field.
type Digest struct {
	state   [8]uint32
	bitlen  uint64
	data    [BlockSize]byte
	datalen int
}

var _ hash.Hash = (*Digest)(nil)

// New returns a Digest initialized to the standard SHA-256 IV.
func New() *Digest {
	d := &Digest{}
	d.Reset()
	return d
}

// Reset restores the standard initial state, discarding any absorbed data.
func (d *Digest) Reset() {
	d.state = initState
	d.bitlen = 0
	d.datalen = 0
}

// Size returns the digest length in bytes (32).
func (d *Digest) Size() int { return Size }

// BlockSize returns the block size in bytes (64).
func (d *Digest) BlockSize() int { return BlockSize }

// Write absorbs p into the running hash state, transforming a block every
// time the 64-byte buffer fills. It never returns an error.
func (d *Digest) Write(p []byte) (int, error) {
	for _, b := range p {
		d.data[d.datalen] = b
		d.datalen++
		if d.datalen == BlockSize {
			d.transform(&d.data)
			d.bitlen += 512
			d.datalen = 0
		}
	}
	return len(p), nil
}

// Sum appends the 32-byte digest of the data absorbed so far to b and
// returns the resulting slice, without altering the receiver's state: the
// length-padding finalization runs on a private copy.
func (d *Digest) Sum(b []byte) []byte {
	clone := *d
	var out [Size]byte
	clone.final(&out)
	return append(b, out[:]...)
}

func rotr(a uint32, n uint) uint32 { return a>>n | a<<(32-n) }

func ch(x, y, z uint32) uint32  { return (x & y) ^ (^x & z) }
func maj(x, y, z uint32) uint32 { return (x & y) ^ (x & z) ^ (y & z) }
func ep0(x uint32) uint32       { return rotr(x, 2) ^ rotr(x, 13) ^ rotr(x, 22) }
func ep1(x uint32) uint32       { return rotr(x, 6) ^ rotr(x, 11) ^ rotr(x, 25) }
func sig0(x uint32) uint32      { return rotr(x, 7) ^ rotr(x, 18) ^ (x >> 3) }
func sig1(x uint32) uint32      { return rotr(x, 17) ^ rotr(x, 19) ^ (x >> 10) }

func (d *Digest) transform(data *[BlockSize]byte) {
	var m [64]uint32
	for i := 0; i < 16; i++ {
		j := i * 4
		m[i] = uint32(data[j])<<24 | uint32(data[j+1])<<16 | uint32(data[j+2])<<8 | uint32(data[j+3])
	}
	for i := 16; i < 64; i++ {
		m[i] = sig1(m[i-2]) + m[i-7] + sig0(m[i-15]) + m[i-16]
	}

	a, b, c, dd, e, f, g, h := d.state[0], d.state[1], d.state[2], d.state[3], d.state[4], d.state[5], d.state[6], d.state[7]

	for i := 0; i < 64; i++ {
		t1 := h + ep1(e) + ch(e, f, g) + k256[i] + m[i]
		t2 := ep0(a) + maj(a, b, c)
		h, g, f, e = g, f, e, dd+t1
		dd, c, b, a = c, b, a, t1+t2
	}

	d.state[0] += a
	d.state[1] += b
	d.state[2] += c
	d.state[3] += dd
	d.state[4] += e
	d.state[5] += f
	d.state[6] += g
	d.state[7] += h
}

func (d *Digest) final(out *[Size]byte) {
	i := d.datalen
	d.bitlen += uint64(d.datalen) * 8

	d.data[i] = 0x80
	i++
	if i > 56 {
		for i < BlockSize {
			d.data[i] = 0
			i++
		}
		d.transform(&d.data)
		i = 0
	}
	for i < 56 {
		d.data[i] = 0
		i++
	}

	bitlen := d.bitlen
	for j := 7; j >= 0; j-- {
		d.data[i] = byte(bitlen >> (uint(j) * 8))
		i++
	}
	d.transform(&d.data)

	for i := 0; i < 8; i++ {
		out[i*4+0] = byte(d.state[i] >> 24)
		out[i*4+1] = byte(d.state[i] >> 16)
		out[i*4+2] = byte(d.state[i] >> 8)
		out[i*4+3] = byte(d.state[i])
	}
}

// Sum256 computes the SHA-256 digest of data in one call.
func Sum256(data []byte) [Size]byte {
	d := New()
	d.Write(data)
	var out [Size]byte
	clone := *d
	clone.final(&out)
	return out
}
