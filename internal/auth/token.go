// Package auth verifies caller identity and evaluates role requirements.
package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated means no usable credential was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidToken means a credential was presented but does not
	// identify a live principal.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden means the principal lacks the required role.
	ErrForbidden = errors.New("access denied")
)

// Claims is the signed payload of an access token. The subject is the
// decimal user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 access tokens.
type TokenManager struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret string, expiry time.Duration, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}
}

// Generate signs a token for the user and returns it with its expiry.
func (m *TokenManager) Generate(userID int64, role model.Role) (string, time.Time, error) {
	if userID <= 0 || role == "" {
		return "", time.Time{}, ErrInvalidToken
	}

	now := m.now()
	expiresAt := now.Add(m.expiry)
	claims := &Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates the token and returns the embedded user id.
// A token that cannot be decoded at all yields ErrUnauthenticated; a
// decodable token with a bad signature, expiry, issuer or subject yields
// ErrInvalidToken.
func (m *TokenManager) Parse(tokenString string) (int64, error) {
	if strings.TrimSpace(tokenString) == "" {
		return 0, ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return 0, ErrUnauthenticated
		}
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// TokenFromHeader extracts the credential from an Authorization header
// of the form "Bearer <token>".
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrUnauthenticated
	}
	return parts[1], nil
}
