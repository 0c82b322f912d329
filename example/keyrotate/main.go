// Command keyrotate demonstrates rotating the password protecting a GCM
// file in place: the file is decrypted under the subkeys derived from the
// old password and re-encrypted under freshly derived subkeys for the new
// password, without ever touching the underlying plaintext on disk.
package main

import (
	"bytes"
	"fmt"
	"os"

	"gost2toolkit/internal/gcmfile"
	"gost2toolkit/internal/kdf"
	"gost2toolkit/internal/secio"
)

func usage(prog string) {
	fmt.Fprintf(os.Stderr, "Usage: %s <gcm_file>\n", prog)
}

func main() {
	if len(os.Args) != 2 {
		usage(os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]

	if err := rotate(path); err != nil {
		fmt.Fprintf(os.Stderr, "Rotation failed due to an error: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("Rotation complete. %s now protected by the new password.\n", path)
}

func rotate(path string) error {
	oldPassword, err := secio.ReadPassword(os.Stdout, os.Stdin, "Enter current password: ")
	if err != nil {
		return fmt.Errorf("reading current password: %w", err)
	}
	oldKeys := kdf.DeriveSubKeys(oldPassword)
	secio.Zero(oldPassword)

	fin, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %q: %w", path, err)
	}
	var plaintext bytes.Buffer
	decErr := gcmfile.Decrypt(&plaintext, fin, &oldKeys)
	fin.Close()
	if decErr != nil {
		return fmt.Errorf("decrypting under current password: %w", decErr)
	}

	newPassword, err := secio.ReadPassword(os.Stdout, os.Stdin, "Enter new password: ")
	if err != nil {
		return fmt.Errorf("reading new password: %w", err)
	}
	confirmPassword, err := secio.ReadPassword(os.Stdout, os.Stdin, "Confirm new password: ")
	if err != nil {
		return fmt.Errorf("reading new password confirmation: %w", err)
	}
	if !bytes.Equal(newPassword, confirmPassword) {
		secio.Zero(newPassword)
		secio.Zero(confirmPassword)
		return fmt.Errorf("new password and confirmation do not match")
	}
	secio.Zero(confirmPassword)
	newKeys := kdf.DeriveSubKeys(newPassword)
	secio.Zero(newPassword)

	var rewritten bytes.Buffer
	iv := secio.GenerateIV()
	if err := gcmfile.Encrypt(&rewritten, bytes.NewReader(plaintext.Bytes()), &newKeys, iv); err != nil {
		return fmt.Errorf("encrypting under new password: %w", err)
	}

	tmpPath := path + ".rotating"
	if err := os.WriteFile(tmpPath, rewritten.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing rotated file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %q with rotated file: %w", path, err)
	}
	return nil
}
