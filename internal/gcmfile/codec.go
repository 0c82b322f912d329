// Package gcmfile implements the GCM-mode authenticated file layout: a
// random IV, GOST2-128-CTR ciphertext, and a trailing 128-bit GHASH tag.
// Unlike cbcfile's trailing digest, this tag is a true MAC: it is derived
// from E_K(J0) and therefore bound to the key.
package gcmfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"gost2toolkit/internal/gcipher"
	"gost2toolkit/internal/ghash"
)

// IVSize is the size of the random IV written in clear at the start of
// the file.
const IVSize = 16

// TagSize is the size of the trailing authentication tag.
const TagSize = 16

// MinFileSize is the smallest legal GCM file: IV + empty ciphertext + tag.
const MinFileSize = IVSize + TagSize

const readChunk = 64 * 1024

// ErrTruncated is returned when the file is smaller than MinFileSize.
var ErrTruncated = errors.New("gcmfile: file too small")

// ErrAuthFailed is returned when the recomputed tag does not match the
// one stored in the file. As with cbcfile, the decrypted plaintext has
// already been written to w by the time this is detected.
var ErrAuthFailed = errors.New("gcmfile: authentication tag mismatch")

func encryptBlock(block [16]byte, keys *gcipher.SubKeys) [16]byte {
	return gcipher.Encrypt(block, keys)
}

// computeH returns H = E_K(0^128), the GHASH subkey.
func computeH(keys *gcipher.SubKeys) ghash.Be128 {
	var zero [16]byte
	h := encryptBlock(zero, keys)
	return ghash.Load(&h)
}

// inc32 increments only the trailing 32 bits of ctr, modulo 2^32, leaving
// the leading 96 bits unchanged.
func inc32(ctr *[16]byte) {
	v := uint32(ctr[12])<<24 | uint32(ctr[13])<<16 | uint32(ctr[14])<<8 | uint32(ctr[15])
	v++
	ctr[12] = byte(v >> 24)
	ctr[13] = byte(v >> 16)
	ctr[14] = byte(v >> 8)
	ctr[15] = byte(v)
}

// deriveJ0 computes J0 from iv via the generic GHASH-based branch (used
// unconditionally here, even for 16-byte IVs, matching the reference tool).
func deriveJ0(iv []byte, h ghash.Be128) [16]byte {
	s := ghash.NewState(h)

	off := 0
	for len(iv)-off >= 16 {
		var b [16]byte
		copy(b[:], iv[off:off+16])
		s.Update(&b)
		off += 16
	}
	if off < len(iv) {
		var b [16]byte
		copy(b[:], iv[off:])
		s.Update(&b)
	}

	s.UpdateLengths(0, uint64(len(iv))*8)

	var j0 [16]byte
	ghash.Store(s.Y, &j0)
	return j0
}

// Encrypt reads plaintext from r, encrypts it with GOST2-128 in CTR mode
// under keys using iv, and writes IV ‖ ciphertext ‖ tag to w.
func Encrypt(w io.Writer, r io.Reader, keys *gcipher.SubKeys, iv [IVSize]byte) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(iv[:]); err != nil {
		return fmt.Errorf("gcmfile: write iv: %w", err)
	}

	h := computeH(keys)
	j0 := deriveJ0(iv[:], h)

	s := ghash.NewState(h)
	ctr := j0
	inc32(&ctr)

	var totalCBytes uint64
	buf := make([]byte, readChunk)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := encryptChunk(bw, s, &ctr, keys, buf[:n], &totalCBytes); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("gcmfile: read plaintext: %w", err)
		}
	}

	s.UpdateLengths(0, totalCBytes*8)

	ej0 := encryptBlock(j0, keys)
	var sbytes [16]byte
	ghash.Store(s.Y, &sbytes)

	var tag [TagSize]byte
	for i := range tag {
		tag[i] = ej0[i] ^ sbytes[i]
	}

	if _, err := bw.Write(tag[:]); err != nil {
		return fmt.Errorf("gcmfile: write tag: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("gcmfile: flush: %w", err)
	}
	return nil
}

func encryptChunk(w io.Writer, s *ghash.State, ctr *[16]byte, keys *gcipher.SubKeys, data []byte, totalCBytes *uint64) error {
	off := 0
	for off < len(data) {
		n := 16
		if len(data)-off < n {
			n = len(data) - off
		}

		ks := encryptBlock(*ctr, keys)
		inc32(ctr)

		var cblk [16]byte
		for i := 0; i < n; i++ {
			cblk[i] = data[off+i] ^ ks[i]
		}

		s.Update(&cblk)

		if _, err := w.Write(cblk[:n]); err != nil {
			return fmt.Errorf("gcmfile: write ciphertext: %w", err)
		}

		*totalCBytes += uint64(n)
		off += n
	}
	return nil
}

// Decrypt reads IV ‖ ciphertext ‖ tag from r (which must support seeking,
// to learn the total size up front) and streams decrypted plaintext to w
// as each ciphertext block is consumed. The tag is verified in constant
// time only after the full ciphertext has passed through GHASH; plaintext
// already written to w by that point is retained regardless of the
// outcome, matching the reference tool's single streaming pass. ErrAuthFailed
// signals the mismatch without retracting anything already written.
func Decrypt(w io.Writer, r io.ReadSeeker, keys *gcipher.SubKeys) error {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("gcmfile: seek end: %w", err)
	}
	if size < MinFileSize {
		return ErrTruncated
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("gcmfile: seek start: %w", err)
	}
	var iv [IVSize]byte
	if _, err := io.ReadFull(r, iv[:]); err != nil {
		return fmt.Errorf("gcmfile: read iv: %w", err)
	}

	cipherLen := size - IVSize - TagSize

	h := computeH(keys)
	j0 := deriveJ0(iv[:], h)

	s := ghash.NewState(h)
	ctr := j0
	inc32(&ctr)

	buf := make([]byte, readChunk)
	remaining := cipherLen

	for remaining > 0 {
		toRead := int64(len(buf))
		if toRead > remaining {
			toRead = remaining
		}
		chunk := buf[:toRead]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return fmt.Errorf("gcmfile: read ciphertext: %w", err)
		}
		remaining -= toRead

		if err := decryptChunk(w, s, &ctr, keys, chunk); err != nil {
			return err
		}
	}

	var storedTag [TagSize]byte
	if _, err := io.ReadFull(r, storedTag[:]); err != nil {
		return fmt.Errorf("gcmfile: read tag: %w", err)
	}

	s.UpdateLengths(0, uint64(cipherLen)*8)

	ej0 := encryptBlock(j0, keys)
	var sbytes [16]byte
	ghash.Store(s.Y, &sbytes)

	var calcTag [TagSize]byte
	for i := range calcTag {
		calcTag[i] = ej0[i] ^ sbytes[i]
	}

	if ghash.CTMemcmp(storedTag[:], calcTag[:]) != 0 {
		return ErrAuthFailed
	}
	return nil
}

func decryptChunk(w io.Writer, s *ghash.State, ctr *[16]byte, keys *gcipher.SubKeys, data []byte) error {
	off := 0
	for off < len(data) {
		n := 16
		if len(data)-off < n {
			n = len(data) - off
		}

		var cblk [16]byte
		copy(cblk[:], data[off:off+n])
		s.Update(&cblk)

		ks := encryptBlock(*ctr, keys)
		inc32(ctr)

		pblk := make([]byte, n)
		for i := 0; i < n; i++ {
			pblk[i] = cblk[i] ^ ks[i]
		}

		if _, err := w.Write(pblk); err != nil {
			return fmt.Errorf("gcmfile: write plaintext: %w", err)
		}

		off += n
	}
	return nil
}
