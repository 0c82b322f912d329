package secio

import "strings"

// gost2Suffix is the conventional extension this toolkit appends to
// encrypted output files.
const gost2Suffix = ".gost2"

// EncryptedName returns the output filename for encrypting input: input
// with ".gost2" appended.
func EncryptedName(input string) string {
	return input + gost2Suffix
}

// DecryptedName returns the output filename for decrypting input: the
// ".gost2" suffix stripped if present, otherwise ".dec" appended.
func DecryptedName(input string) string {
	if strings.HasSuffix(input, gost2Suffix) {
		return input[:len(input)-len(gost2Suffix)]
	}
	return input + ".dec"
}
