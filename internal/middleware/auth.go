package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenIssuer   = "collegeconnect-api"
	TokenAudience = "collegeconnect-client"
	TokenTTL      = 7 * 24 * time.Hour
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenClaims are the fields the API relies on after a token is verified.
type TokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// IssueToken signs an HS256 access token for userID.
func IssueToken(secret string, userID uint, now time.Time) (string, TokenClaims, error) {
	if secret == "" {
		return "", TokenClaims{}, fmt.Errorf("JWT secret not configured")
	}

	tc := TokenClaims{
		UserID:    userID,
		JTI:       fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
		ExpiresAt: now.Add(TokenTTL),
	}
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": tc.ExpiresAt.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": tc.JTI,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", TokenClaims{}, err
	}
	return signed, tc, nil
}

// ParseToken verifies signature, expiry, issuer and audience, and returns the claims.
func ParseToken(secret, tokenString string) (TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return TokenClaims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return TokenClaims{}, ErrInvalidToken
	}

	tc := TokenClaims{UserID: uint(userID)}
	tc.JTI, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}
	return tc, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RevocationKey is the Redis key that marks a token id as logged out.
func RevocationKey(jti string) string {
	return "blacklist:" + jti
}
