package hash

import "golang.org/x/crypto/bcrypt"

// Password hashes a plaintext secret with bcrypt. Each call salts
// independently, so two hashes of the same secret never match.
func Password(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify compares a plaintext secret against a stored bcrypt hash.
// bcrypt's comparison does not leak where a mismatch occurs.
func Verify(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
