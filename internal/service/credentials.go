package service

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

// No 0/O or 1/l/I.
const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const minPasswordLength = 8

func generatePassword(length int) (string, error) {
	if length < minPasswordLength {
		length = minPasswordLength
	}
	max := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return string(hash), nil
}

// newCredential generates a temporary password and its hash.
func newCredential(length int) (plain, hash string, err error) {
	plain, err = generatePassword(length)
	if err != nil {
		return "", "", appErrors.Internal(err, "failed to generate password")
	}
	hash, err = hashPassword(plain)
	if err != nil {
		return "", "", err
	}
	return plain, hash, nil
}
