package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// ComparePassword reports whether password matches the stored bcrypt hash.
// The operator hash is produced out of band; the service itself never
// hashes passwords.
func ComparePassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
