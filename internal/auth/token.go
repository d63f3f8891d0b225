package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the only error surfaced for a bad credential. Malformed,
// expired and badly signed tokens are deliberately indistinguishable.
var ErrInvalidToken = errors.New("invalid token")

// Identity is what a valid token says about its bearer.
type Identity struct {
	UserID   int64
	Username string
}

// Claims is the token body: the username in "sub" and the numeric user id in
// "userId".
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Validator verifies HS256 tokens signed with a shared secret.
type Validator struct {
	secret []byte
	parser *jwt.Parser
}

// NewValidator creates a validator for tokens signed with secret.
func NewValidator(secret string) *Validator {
	return &Validator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Validate reports whether token has a good signature, has not expired and
// names a user.
func (v *Validator) Validate(token string) bool {
	_, err := v.Identity(token)
	return err == nil
}

// Identity returns the bearer of token, or ErrInvalidToken.
func (v *Validator) Identity(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.UserID, Username: claims.Subject}, nil
}

// Issue signs a token for id that expires after ttl.
func (v *Validator) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: id.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
