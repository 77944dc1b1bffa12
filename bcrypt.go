package adminauth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashOperatorKey generates a bcrypt hash suitable for WithOperatorKeyHash.
func HashOperatorKey(key string) (string, error) {
	if key == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(key), operatorKeyHashCost())
	return string(h), err
}

// ComparePasswordAndHash validates the given cleartext value against its
// bcrypt hash.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
