package middleware

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestIssueAndParseToken(t *testing.T) {
	now := time.Now()
	signed, issued, err := IssueToken(testSecret, 123, now)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.JTI)

	parsed, err := ParseToken(testSecret, signed)
	require.NoError(t, err)
	assert.Equal(t, uint(123), parsed.UserID)
	assert.Equal(t, issued.JTI, parsed.JTI)
	assert.WithinDuration(t, now.Add(TokenTTL), parsed.ExpiresAt, time.Second)
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	_, _, err := IssueToken("", 1, time.Now())
	assert.Error(t, err)
}

func TestParseToken_Rejects(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": strconv.Itoa(5),
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"malformed", func() string { return "malformed.token.here" }},
		{"expired", func() string {
			c := valid()
			c["exp"] = time.Now().Add(-time.Hour).Unix()
			return sign(c)
		}},
		{"wrong issuer", func() string {
			c := valid()
			c["iss"] = "someone-else"
			return sign(c)
		}},
		{"wrong audience", func() string {
			c := valid()
			c["aud"] = "other-client"
			return sign(c)
		}},
		{"missing subject", func() string {
			c := valid()
			delete(c, "sub")
			return sign(c)
		}},
		{"non numeric subject", func() string {
			c := valid()
			c["sub"] = "ada"
			return sign(c)
		}},
		{"wrong secret", func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, valid()).SignedString([]byte("another-secret"))
			return s
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(testSecret, tt.token())
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err := ParseToken(testSecret, sign(valid()))
	assert.NoError(t, err)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "Basic dXNlcjpwYXNz", "Bearer", "Bearer a b"} {
		_, ok := BearerToken(h)
		assert.False(t, ok, h)
	}
	assert.Equal(t, "blacklist:j1", RevocationKey("j1"))
}
