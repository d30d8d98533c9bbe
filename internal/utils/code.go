package utils

import (
	"crypto/rand"
	"math/big"
)

// CodeLength is the length of every issued confirmation code.
const CodeLength = 16

// codeAlphabet excludes lookalike characters (0/O, 1/I/L) so codes survive
// being retyped from an email.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateConfirmationCode returns a fresh random code drawn from the fixed
// alphabet, CodeLength characters long.
func GenerateConfirmationCode() (string, error) {
	buf := make([]byte, CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
