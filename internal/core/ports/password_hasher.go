package ports

// PasswordHasher is a one-way, salted, cost-parameterized credential hash.
// Plaintext passwords never leave this boundary.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hashed, plain string) bool
}
