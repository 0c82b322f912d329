// Command gost2gcm encrypts or decrypts a file with GOST2-128 in GCM mode,
// producing authenticated ciphertext with a 128-bit tag.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gost2toolkit/internal/gcmfile"
	"gost2toolkit/internal/kdf"
	"gost2toolkit/internal/secio"
)

func usage(prog string) {
	fmt.Fprintf(os.Stderr, "Usage: %s c|d <input_file>\n", prog)
}

func main() {
	flag.Usage = func() { usage(os.Args[0]) }
	flag.Parse()
	args := flag.Args()

	if len(args) != 2 {
		usage(os.Args[0])
		os.Exit(1)
	}

	mode := args[0]
	if mode != "c" && mode != "d" {
		usage(os.Args[0])
		os.Exit(1)
	}

	inPath := args[1]
	var outPath string
	if mode == "c" {
		outPath = secio.EncryptedName(inPath)
	} else {
		outPath = secio.DecryptedName(inPath)
	}

	err := run(mode, inPath, outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Operation failed due to an error: %v\n", err)
		os.Remove(outPath)
		if errors.Is(err, gcmfile.ErrAuthFailed) {
			os.Exit(3)
		}
		os.Exit(2)
	}

	verb := "Encryption"
	if mode == "d" {
		verb = "Decryption"
	}
	fmt.Printf("%s completed. Output: %s\n", verb, outPath)
	if mode == "d" {
		fmt.Println("Authentication OK")
	}
}

func run(mode, inPath, outPath string) error {
	fin, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("cannot open input %q: %w", inPath, err)
	}
	defer fin.Close()

	fout, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("cannot create output %q: %w", outPath, err)
	}
	defer fout.Close()

	password, err := secio.ReadPassword(os.Stdout, os.Stdin, "Enter password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	keys := kdf.DeriveSubKeys(password)
	secio.Zero(password)

	if mode == "c" {
		iv := secio.GenerateIV()
		return gcmfile.Encrypt(fout, fin, &keys, iv)
	}

	return gcmfile.Decrypt(fout, fin, &keys)
}
