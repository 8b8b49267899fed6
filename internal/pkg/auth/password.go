package auth

import "golang.org/x/crypto/bcrypt"

// bcrypt ignores input beyond 72 bytes; truncate explicitly so hashing and
// verification agree on what was hashed.
const maxPasswordBytes = 72

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	hash, err := bcrypt.GenerateFromPassword(b, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), b) == nil
}
