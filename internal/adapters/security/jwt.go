package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/meridianhealth/account-security-service/internal/domain"
	"github.com/meridianhealth/account-security-service/internal/ports"
)

// ServiceTokenVerifier validates HS256 bearer tokens presented by internal
// callers. The shared secret is held at adapter level so the application
// layer stays crypto-library agnostic.
type ServiceTokenVerifier struct {
	secret []byte
}

// NewServiceTokenVerifier builds a verifier from the configured shared secret.
func NewServiceTokenVerifier(secret string) (*ServiceTokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("service token secret is required")
	}
	return &ServiceTokenVerifier{secret: []byte(secret)}, nil
}

type serviceJWTClaims struct {
	CallerService string `json:"svc"`
	jwt.RegisteredClaims
}

func (v *ServiceTokenVerifier) Verify(raw string) (ports.ServiceClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &serviceJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return ports.ServiceClaims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*serviceJWTClaims)
	if !ok || !parsed.Valid {
		return ports.ServiceClaims{}, fmt.Errorf("%w: invalid token claims", domain.ErrUnauthorized)
	}
	if claims.CallerService == "" {
		return ports.ServiceClaims{}, fmt.Errorf("%w: caller service claim missing", domain.ErrUnauthorized)
	}

	out := ports.ServiceClaims{CallerService: claims.CallerService}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// SignServiceToken mints a caller token. Production issuance lives with the
// platform identity service; this exists for local runs and tests.
func SignServiceToken(secret, callerService string, issuedAt time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, serviceJWTClaims{
		CallerService: callerService,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}
