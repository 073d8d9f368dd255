package security

import (
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Vanilla1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Vanilla1!", hash)
	assert.True(t, CheckPassword(hash, "Vanilla1!"))
	assert.False(t, CheckPassword(hash, "vanilla1!"))
	assert.False(t, CheckPassword("", "Vanilla1!"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(16)
	require.NoError(t, err)
	b, err := GenerateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)

	_, err = GenerateRandomString(0)
	assert.Error(t, err)
}

func TestUserTokenRoundTrip(t *testing.T) {
	now := time.Now()
	token, expiresAt, err := IssueUserToken("secret", 42, "admin", time.Hour, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), expiresAt, time.Second)

	claims, err := ParseUserToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseUserTokenRejects(t *testing.T) {
	token, _, err := IssueUserToken("secret", 7, "user", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseUserToken("other-secret", token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	expired, _, err := IssueUserToken("secret", 7, "user", time.Minute, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = ParseUserToken("secret", expired)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = ParseUserToken("secret", "not.a.token")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, _, err = IssueUserToken(" ", 7, "user", time.Hour, time.Now())
	assert.Error(t, err)
}

func TestTOTP(t *testing.T) {
	secret, url, err := GenerateTOTP("ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, url, "otpauth://totp/")
	assert.Contains(t, url, "issuer=VanillaAI")

	now := time.Now()
	code, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)
	assert.True(t, ValidateTOTP(secret, code, now))
	assert.False(t, ValidateTOTP(secret, "000000x", now))
	assert.False(t, ValidateTOTP("", code, now))
}
