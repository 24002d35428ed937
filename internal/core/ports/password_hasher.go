package ports

// PasswordHasher performs one-way password hashing.
//
// Verify reports false for both a mismatch and a malformed stored hash;
// callers cannot tell the two apart, which keeps storage corruption from
// leaking through the login path.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}
