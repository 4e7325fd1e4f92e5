package security

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	formTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	FormTokenLength   = 32
)

var (
	errNegativeLength = errors.New("length must be non-negative")
	errEmptyAlphabet  = errors.New("alphabet must not be empty")
)

// RandomString returns a cryptographically secure, unbiased string of the requested length.
func RandomString(length int, alphabet string) (string, error) {
	if length < 0 {
		return "", errNegativeLength
	}
	if length == 0 {
		return "", nil
	}
	if len(alphabet) == 0 {
		return "", errEmptyAlphabet
	}

	limit := big.NewInt(int64(len(alphabet)))
	value := make([]byte, length)
	for index := range value {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		value[index] = alphabet[position.Int64()]
	}

	return string(value), nil
}

// NewFormToken returns an opaque, URL-safe identifier for one rendered sign-up form.
func NewFormToken() (string, error) {
	return RandomString(FormTokenLength, formTokenAlphabet)
}

func IsFormToken(value string) bool {
	if len(value) != FormTokenLength {
		return false
	}
	for index := 0; index < len(value); index++ {
		char := value[index]
		isLetter := (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z')
		if !isLetter && (char < '0' || char > '9') {
			return false
		}
	}
	return true
}
