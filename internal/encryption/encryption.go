// Package encryption wraps backup archives with age passphrase encryption.
// Keys are never stored: an encrypted archive must be restorable on a fresh
// installation with nothing but the passphrase.
package encryption

import (
	"bufio"
	"fmt"
	"io"

	"filippo.io/age"
)

const ageHeader = "age-encryption.org/v1"

// Encrypt returns a writer that age-encrypts everything written to it with
// the passphrase, emitting ciphertext to w. The caller must Close the
// returned writer to finalize the stream.
func Encrypt(w io.Writer, passphrase string) (io.WriteCloser, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	ew, err := age.Encrypt(w, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	return ew, nil
}

// Decrypt returns a reader yielding the plaintext of the age stream r.
// A wrong passphrase surfaces as a decryption error on the first read.
func Decrypt(r io.Reader, passphrase string) (io.Reader, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	dr, err := age.Decrypt(r, identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting archive: %w", err)
	}
	return dr, nil
}

// Sniff reports whether r starts with the age format header. The returned
// reader replays the peeked bytes and must be used in place of r.
func Sniff(r io.Reader) (bool, io.Reader, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(len(ageHeader))
	if err != nil {
		if err == io.EOF {
			// Shorter than the header: cannot be an age stream.
			return false, br, nil
		}
		return false, br, fmt.Errorf("peeking stream header: %w", err)
	}
	return string(peek) == ageHeader, br, nil
}
