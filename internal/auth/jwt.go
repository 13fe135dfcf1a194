package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is who an identity-provider token says the caller is.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

type claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens minted by the identity provider. Tokens
// must carry an expiry and a subject; the issuer is checked when set.
type Verifier struct {
	method string
	key    any
	issuer string
}

// NewHMACVerifier accepts HS256 tokens signed with secret.
func NewHMACVerifier(secret, issuer string) (*Verifier, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: HMAC secret must be at least 16 characters")
	}
	return &Verifier{method: jwt.SigningMethodHS256.Alg(), key: []byte(secret), issuer: issuer}, nil
}

// NewRSAVerifier accepts RS256 tokens signed by the private half of pemKey.
func NewRSAVerifier(pemKey []byte, issuer string) (*Verifier, error) {
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("auth: parse public key: %w", err)
	}
	return &Verifier{method: jwt.SigningMethodRS256.Alg(), key: pub, issuer: issuer}, nil
}

// Verify parses tokenStr and returns the identity it asserts.
func (v *Verifier) Verify(tokenStr string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return &Identity{Subject: c.Subject, Email: c.Email, Name: c.Name}, nil
}

// SignHMAC mints an HS256 token for id. Used by larderctl to issue
// development tokens and by tests.
func SignHMAC(secret, issuer string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}
