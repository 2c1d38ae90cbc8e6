package core

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the cost the existing user records were hashed with.
const bcryptCost = 10

// HashPassword returns a salted bcrypt digest of password. The digest encodes
// algorithm, cost, and salt, so verification needs no separate salt storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored digest.
// A malformed digest fails closed: the result is false, never an error.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
