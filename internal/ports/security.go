package ports

import "time"

// PasswordHasher is the slow-hash collaborator. Compare must be timing-safe;
// candidate material is hashed with the same parameters as the stored digest.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// ServiceClaims identifies the internal caller presented on the HTTP surface.
type ServiceClaims struct {
	CallerService string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// ServiceTokenVerifier validates bearer tokens issued to internal application
// layers that call this engine.
type ServiceTokenVerifier interface {
	Verify(token string) (ServiceClaims, error)
}
