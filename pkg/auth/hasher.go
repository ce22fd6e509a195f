package auth

import "golang.org/x/crypto/bcrypt"

// BcryptHasher implements services.PasswordHasher with bcrypt at the
// package default cost.
type BcryptHasher struct{}

// NewBcryptHasher builds a BcryptHasher.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{}
}

// Hash bcrypt-hashes a plaintext password.
func (BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether password matches hash, returning bcrypt's own
// error (ErrMismatchedHashAndPassword) on mismatch.
func (BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
