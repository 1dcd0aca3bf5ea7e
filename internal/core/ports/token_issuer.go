package ports

// TokenIssuer signs and verifies the stateless bearer tokens used for
// session authentication. Validate must distinguish an expired token from
// an otherwise invalid one so callers can answer precisely.
type TokenIssuer interface {
	Issue(subject string) (string, error)
	Validate(token string) (subject string, err error)
}
