package secio

import "testing"

func TestEncryptedName(t *testing.T) {
	got := EncryptedName("report.txt")
	want := "report.txt.gost2"
	if got != want {
		t.Fatalf("EncryptedName() = %q, want %q", got, want)
	}
}

func TestDecryptedNameStripsSuffix(t *testing.T) {
	got := DecryptedName("report.txt.gost2")
	want := "report.txt"
	if got != want {
		t.Fatalf("DecryptedName() = %q, want %q", got, want)
	}
}

func TestDecryptedNameAppendsDecWhenNoSuffix(t *testing.T) {
	got := DecryptedName("report.txt")
	want := "report.txt.dec"
	if got != want {
		t.Fatalf("DecryptedName() = %q, want %q", got, want)
	}
}

func TestTrimNewline(t *testing.T) {
	cases := map[string]string{
		"abc\n":   "abc",
		"abc\r\n": "abc",
		"abc":     "abc",
		"":        "",
	}
	for in, want := range cases {
		if got := trimNewline(in); got != want {
			t.Fatalf("trimNewline(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateIVProducesDistinctValues(t *testing.T) {
	a := GenerateIV()
	b := GenerateIV()
	if a == b {
		t.Fatalf("two successive IVs were identical")
	}
}
