// Package cbcfile implements the CBC-mode file layout: an IV written in
// clear, CBC-chained GOST2-128 blocks with PKCS#7 padding, followed by a
// SHA-256 digest computed over the ciphertext only. The trailing digest is
// an integrity check, not a MAC: it does not bind the key, so it detects
// accidental corruption but not a deliberate, key-unaware tamper that also
// recomputes the hash.
package cbcfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"gost2toolkit/internal/gcipher"
	"gost2toolkit/internal/shacore"
)

// BlockSize is the GOST2-128 block size used for CBC chaining.
const BlockSize = gcipher.BlockSize

// DigestSize is the size of the trailing SHA-256 digest.
const DigestSize = shacore.Size

// MinFileSize is the smallest legal CBC file: IV + one padding block + digest.
const MinFileSize = BlockSize + BlockSize + DigestSize

// MinHeaderSize is the smallest size a file must clear before its
// ciphertext-region length is even well-defined: IV + digest, with zero
// ciphertext bytes in between. Anything shorter than this is truncated;
// anything at or above it but short of MinFileSize has a ciphertext region
// that exists but fails the block-size/non-empty check instead.
const MinHeaderSize = BlockSize + DigestSize

const readChunk = 64 * 1024

var (
	// ErrInvalidCiphertextSize is returned when the ciphertext region
	// (between the IV and the trailing digest) is empty or not a multiple
	// of BlockSize.
	ErrInvalidCiphertextSize = errors.New("cbcfile: invalid ciphertext size")
	// ErrInvalidPadding is returned when the final decrypted block's
	// PKCS#7 padding does not validate.
	ErrInvalidPadding = errors.New("cbcfile: invalid padding")
	// ErrAuthFailed is returned when the recomputed SHA-256 digest does
	// not match the one stored in the file. The decrypted plaintext is
	// still emitted to w; this error is advisory.
	ErrAuthFailed = errors.New("cbcfile: digest mismatch")
	// ErrTruncated is returned when the file is smaller than MinHeaderSize.
	ErrTruncated = errors.New("cbcfile: file too small")
)

func xorBlock(dst *[BlockSize]byte, with *[BlockSize]byte) {
	for i := range dst {
		dst[i] ^= with[i]
	}
}

func pkcs7Pad(buf []byte) []byte {
	pad := BlockSize - (len(buf) % BlockSize)
	out := make([]byte, len(buf)+pad)
	copy(out, buf)
	for i := len(buf); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(buf []byte) ([]byte, error) {
	if len(buf) == 0 || len(buf)%BlockSize != 0 {
		return nil, ErrInvalidPadding
	}
	pad := int(buf[len(buf)-1])
	if pad == 0 || pad > BlockSize {
		return nil, ErrInvalidPadding
	}
	n := len(buf)
	for i := 0; i < pad; i++ {
		if int(buf[n-1-i]) != pad {
			return nil, ErrInvalidPadding
		}
	}
	return buf[:n-pad], nil
}

// Encrypt reads plaintext from r, CBC-encrypts it under keys using iv, and
// writes IV ‖ ciphertext ‖ SHA-256(ciphertext) to w. The final block is
// always PKCS#7 padded, even on empty input (which yields exactly one
// padding block).
func Encrypt(w io.Writer, r io.Reader, keys *gcipher.SubKeys, iv [BlockSize]byte) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(iv[:]); err != nil {
		return fmt.Errorf("cbcfile: write iv: %w", err)
	}

	prev := iv
	digest := shacore.New()

	var carry []byte
	buf := make([]byte, readChunk)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			if err := encryptFullBlocks(bw, digest, &carry, &prev, keys); err != nil {
				return err
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("cbcfile: read plaintext: %w", err)
		}
	}

	padded := pkcs7Pad(carry)
	if err := encryptFullBlocks(bw, digest, &padded, &prev, keys); err != nil {
		return err
	}

	sum := digest.Sum(nil)
	if _, err := bw.Write(sum); err != nil {
		return fmt.Errorf("cbcfile: write digest: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("cbcfile: flush: %w", err)
	}
	return nil
}

func encryptFullBlocks(w io.Writer, digest *shacore.Digest, carry *[]byte, prev *[BlockSize]byte, keys *gcipher.SubKeys) error {
	c := *carry
	off := 0
	for len(c)-off >= BlockSize {
		var block [BlockSize]byte
		copy(block[:], c[off:off+BlockSize])
		xorBlock(&block, prev)

		out := gcipher.Encrypt(block, keys)
		if _, err := w.Write(out[:]); err != nil {
			return fmt.Errorf("cbcfile: write ciphertext: %w", err)
		}
		digest.Write(out[:])
		*prev = out

		off += BlockSize
	}
	*carry = append([]byte(nil), c[off:]...)
	return nil
}

// Decrypt reads IV ‖ ciphertext ‖ digest from r (which must support
// seeking, to learn the total size up front), CBC-decrypts the ciphertext
// under keys, strips PKCS#7 padding, and streams the plaintext to w.
// Plaintext is written even when the trailing digest does not match;
// ErrAuthFailed signals that mismatch without suppressing output, per the
// file format's non-MAC integrity contract.
func Decrypt(w io.Writer, r io.ReadSeeker, keys *gcipher.SubKeys) error {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("cbcfile: seek end: %w", err)
	}
	if size < MinHeaderSize {
		return ErrTruncated
	}
	payloadEnd := size - DigestSize

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("cbcfile: seek start: %w", err)
	}
	var iv [BlockSize]byte
	if _, err := io.ReadFull(r, iv[:]); err != nil {
		return fmt.Errorf("cbcfile: read iv: %w", err)
	}

	if _, err := r.Seek(payloadEnd, io.SeekStart); err != nil {
		return fmt.Errorf("cbcfile: seek digest: %w", err)
	}
	var storedDigest [DigestSize]byte
	if _, err := io.ReadFull(r, storedDigest[:]); err != nil {
		return fmt.Errorf("cbcfile: read digest: %w", err)
	}

	if _, err := r.Seek(BlockSize, io.SeekStart); err != nil {
		return fmt.Errorf("cbcfile: seek ciphertext: %w", err)
	}
	remaining := payloadEnd - BlockSize
	if remaining <= 0 || remaining%BlockSize != 0 {
		return ErrInvalidCiphertextSize
	}

	prev := iv
	digest := shacore.New()

	buf := make([]byte, readChunk)
	var pendingPlain [BlockSize]byte
	havePending := false

	for remaining > 0 {
		toRead := int64(len(buf))
		if toRead > remaining {
			toRead = remaining
		}
		toRead -= toRead % BlockSize

		chunk := buf[:toRead]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return fmt.Errorf("cbcfile: read ciphertext: %w", err)
		}
		remaining -= toRead
		digest.Write(chunk)

		for off := 0; int64(off) < toRead; off += BlockSize {
			var cblock [BlockSize]byte
			copy(cblock[:], chunk[off:off+BlockSize])

			pblock := gcipher.Decrypt(cblock, keys)
			xorBlock(&pblock, &prev)

			if havePending {
				if _, err := w.Write(pendingPlain[:]); err != nil {
					return fmt.Errorf("cbcfile: write plaintext: %w", err)
				}
			}
			pendingPlain = pblock
			havePending = true

			prev = cblock
		}
	}

	if !havePending {
		return ErrInvalidCiphertextSize
	}

	last, err := pkcs7Unpad(pendingPlain[:])
	if err != nil {
		return err
	}
	if len(last) > 0 {
		if _, err := w.Write(last); err != nil {
			return fmt.Errorf("cbcfile: write plaintext: %w", err)
		}
	}

	calc := digest.Sum(nil)
	if !bytesEqual(calc, storedDigest[:]) {
		return ErrAuthFailed
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
