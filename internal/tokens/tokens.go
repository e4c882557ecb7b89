package tokens

import "time"

// Authority issues and validates opaque download capability tokens. A token
// is bound to one absolute artifact path and is valid until it expires or is
// revoked. Validation never revokes; revocation happens explicitly after a
// fully streamed delivery.
type Authority interface {
	Create(path string, ttl time.Duration) (string, error)
	Validate(token string) (string, bool)
	Revoke(token string)
}
