package kdf

import (
	"bytes"
	"encoding/hex"
	"testing"

	"gost2toolkit/internal/gcipher"
)

func mustHexBlock(t *testing.T, s string) [gcipher.BlockSize]byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex literal %q: %v", s, err)
	}
	var out [gcipher.BlockSize]byte
	copy(out[:], b)
	return out
}

func TestDeriveSubKeysEndToEndVectors(t *testing.T) {
	cases := []struct {
		name     string
		password string
		plain    string
		cipher   string
	}{
		{
			name:     "vector1",
			password: "My secret password!0123456789abc",
			plain:    "fefefefefefefefefefefefefefefefe",
			cipher:   "8ca4c196b773d9c9a00ad3931f9b2b09",
		},
		{
			name:     "vector2",
			password: "My secret password!0123456789ABC",
			plain:    "00000000000000000000000000000000",
			cipher:   "96ab544910861d5b22b04fc984d80098",
		},
		{
			name:     "vector3",
			password: "My secret password!0123456789abZ",
			plain:    "00000000000000000000000000000001",
			cipher:   "acf914ac22ae2079390bc240ed51916f",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keys := DeriveSubKeys([]byte(tc.password))
			plain := mustHexBlock(t, tc.plain)
			got := gcipher.Encrypt(plain, &keys)
			want := mustHexBlock(t, tc.cipher)
			if got != want {
				t.Fatalf("ciphertext mismatch: got %x want %x", got, want)
			}

			back := gcipher.Decrypt(got, &keys)
			if back != plain {
				t.Fatalf("decrypt did not invert encrypt: got %x want %x", back, plain)
			}
		})
	}
}

func TestDeriveSubKeysDeterministic(t *testing.T) {
	a := DeriveSubKeys([]byte("same password"))
	b := DeriveSubKeys([]byte("same password"))
	if a != b {
		t.Fatalf("same password produced different subkeys")
	}
}

func TestDeriveSubKeysTruncatesAt32Bytes(t *testing.T) {
	short := DeriveSubKeys([]byte("exactly this is 32 bytes long!!!"))
	long := DeriveSubKeys([]byte("exactly this is 32 bytes long!!!plus a bunch of extra tail data"))
	if short != long {
		t.Fatalf("password bytes beyond the 32nd should be ignored")
	}
}

func TestHasherSumDoesNotMutateState(t *testing.T) {
	h := New()
	h.Write([]byte("partial input"))

	first := h.Sum(nil)
	second := h.Sum(nil)
	if !bytes.Equal(first, second) {
		t.Fatalf("repeated Sum calls diverged: %x vs %x", first, second)
	}

	h.Write([]byte(" more"))
	third := h.Sum(nil)
	if bytes.Equal(first, third) {
		t.Fatalf("Sum after further Write did not change")
	}
}

func TestHasherSizeAndBlockSize(t *testing.T) {
	h := New()
	if h.Size() != gcipher.DigestSize {
		t.Fatalf("Size() = %d, want %d", h.Size(), gcipher.DigestSize)
	}
	if h.BlockSize() != 512 {
		t.Fatalf("BlockSize() = %d, want 512", h.BlockSize())
	}
}

func TestHasherResetMatchesFreshInstance(t *testing.T) {
	fresh := New().Sum(nil)

	h := New()
	h.Write([]byte("some data that changes internal state"))
	h.Reset()
	reset := h.Sum(nil)

	if !bytes.Equal(fresh, reset) {
		t.Fatalf("Reset did not restore the zero-value digest")
	}
}
