package ports

// TokenService issues and verifies the bearer tokens handed out at login.
//
// Verification failures are reported through the domain sentinel errors
// ErrTokenMalformed, ErrTokenBadSignature, ErrTokenExpired and
// ErrTokenUnsupported. ExtractSubject uses the same taxonomy so the request
// filter can classify a token before resolving its user.
type TokenService interface {
	Issue(username string) (string, error)
	Verify(raw, username string) error
	ExtractSubject(raw string) (string, error)
}
