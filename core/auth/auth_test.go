package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	iss, err := NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)

	tok, err := iss.GenerateToken(42, "alice")
	require.NoError(t, err)

	claims, err := iss.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestParseToken_Rejects(t *testing.T) {
	iss, _ := NewIssuer("s3cret", time.Hour)
	other, _ := NewIssuer("other", time.Hour)

	foreign, err := other.GenerateToken(1, "bob")
	require.NoError(t, err)
	_, err = iss.ParseToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 过期
	past := time.Now().Add(-2 * time.Hour)
	iss.now = func() time.Time { return past }
	old, err := iss.GenerateToken(1, "bob")
	require.NoError(t, err)
	iss.now = time.Now
	_, err = iss.ParseToken(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 非数字 subject
	bad := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "abc"})
	s, err := bad.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = iss.ParseToken(s)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 其他签名算法
	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1"})
	s, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.ParseToken(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer("", 0)
	assert.ErrorIs(t, err, ErrNoSecret)

	iss, err := NewIssuer("x", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, iss.ttl)
}
