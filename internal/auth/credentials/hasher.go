package credentials

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash hashes a plaintext password using bcrypt. Each call salts
// independently, so hashing the same password twice yields different
// secrets. Password strength policy belongs to the route layer; this
// pair only turns plaintext into an opaque secret and back-checks it.
func Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(
		[]byte(password),
		bcrypt.DefaultCost,
	)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// Verify compares a plaintext password with a stored hash.
// It returns nil iff the password produced the hash.
func Verify(hash string, password string) error {
	return bcrypt.CompareHashAndPassword(
		[]byte(hash),
		[]byte(password),
	)
}
