package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// TOTPIssuer names the service in authenticator apps.
const TOTPIssuer = "VanillaAI"

// GenerateTOTP creates a new TOTP secret and its otpauth URL.
func GenerateTOTP(accountName string) (secret string, url string, err error) {
	key, errGenerate := totp.Generate(totp.GenerateOpts{
		Issuer:      TOTPIssuer,
		AccountName: strings.TrimSpace(accountName),
	})
	if errGenerate != nil {
		return "", "", fmt.Errorf("security: generate totp: %w", errGenerate)
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTP checks a code against the secret at the given time.
func ValidateTOTP(secret, code string, now time.Time) bool {
	secret = strings.TrimSpace(secret)
	code = strings.TrimSpace(code)
	if secret == "" || code == "" {
		return false
	}
	ok, errValidate := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period: 30,
		Skew:   1,
		Digits: 6,
	})
	return errValidate == nil && ok
}
