package cbcfile

import (
	"bytes"
	"errors"
	"testing"

	"gost2toolkit/internal/gcipher"
	"gost2toolkit/internal/kdf"
)

func testKeys(t *testing.T) *gcipher.SubKeys {
	t.Helper()
	keys := kdf.DeriveSubKeys([]byte("cbcfile test password"))
	return &keys
}

func testIV() [BlockSize]byte {
	var iv [BlockSize]byte
	for i := range iv {
		iv[i] = byte(i + 1)
	}
	return iv
}

func roundTrip(t *testing.T, keys *gcipher.SubKeys, plaintext []byte) ([]byte, []byte) {
	t.Helper()

	var ciphertext bytes.Buffer
	if err := Encrypt(&ciphertext, bytes.NewReader(plaintext), keys, testIV()); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	var recovered bytes.Buffer
	r := bytes.NewReader(ciphertext.Bytes())
	if err := Decrypt(&recovered, r, keys); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	return ciphertext.Bytes(), recovered.Bytes()
}

func TestRoundTripNonEmpty(t *testing.T) {
	keys := testKeys(t)
	plaintext := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 100)

	_, recovered := roundTrip(t, keys, plaintext)
	if !bytes.Equal(recovered, plaintext) {
		t.Fatalf("round trip mismatch")
	}
}

func TestRoundTripEmptyInput(t *testing.T) {
	keys := testKeys(t)

	ciphertext, recovered := roundTrip(t, keys, nil)
	if len(ciphertext) != MinFileSize {
		t.Fatalf("empty-input ciphertext length = %d, want %d", len(ciphertext), MinFileSize)
	}
	if len(recovered) != 0 {
		t.Fatalf("empty-input plaintext recovered %d bytes, want 0", len(recovered))
	}
}

func TestRoundTripBlockAlignedInput(t *testing.T) {
	keys := testKeys(t)
	plaintext := bytes.Repeat([]byte{0xAB}, BlockSize*3)

	_, recovered := roundTrip(t, keys, plaintext)
	if !bytes.Equal(recovered, plaintext) {
		t.Fatalf("round trip mismatch on block-aligned input")
	}
}

func TestDecryptDetectsDigestTamper(t *testing.T) {
	keys := testKeys(t)

	var ciphertext bytes.Buffer
	if err := Encrypt(&ciphertext, bytes.NewReader([]byte("hello world")), keys, testIV()); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	corrupted := ciphertext.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	var recovered bytes.Buffer
	err := Decrypt(&recovered, bytes.NewReader(corrupted), keys)
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if recovered.Len() == 0 {
		t.Fatalf("plaintext should still be emitted on digest mismatch")
	}
}

func TestDecryptRejectsTruncatedFile(t *testing.T) {
	keys := testKeys(t)
	tiny := make([]byte, MinHeaderSize-1)

	var recovered bytes.Buffer
	err := Decrypt(&recovered, bytes.NewReader(tiny), keys)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestDecryptRejectsEmptyCiphertextRegion(t *testing.T) {
	keys := testKeys(t)
	// IV (16) + digest (32), zero ciphertext bytes: clears MinHeaderSize
	// but the ciphertext region is empty, which the file layout forbids.
	bad := make([]byte, MinHeaderSize)

	var recovered bytes.Buffer
	err := Decrypt(&recovered, bytes.NewReader(bad), keys)
	if !errors.Is(err, ErrInvalidCiphertextSize) {
		t.Fatalf("expected ErrInvalidCiphertextSize, got %v", err)
	}
}

func TestDecryptRejectsBadCiphertextSize(t *testing.T) {
	keys := testKeys(t)
	// IV (16) + 21 ciphertext-region bytes (not a multiple of BlockSize,
	// but large enough to clear MinHeaderSize) + digest (32).
	bad := make([]byte, BlockSize+21+DigestSize)

	var recovered bytes.Buffer
	err := Decrypt(&recovered, bytes.NewReader(bad), keys)
	if !errors.Is(err, ErrInvalidCiphertextSize) {
		t.Fatalf("expected ErrInvalidCiphertextSize, got %v", err)
	}
}
