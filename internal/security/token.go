package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of the account access token minted by the
// identity provider. This service only parses it; it never signs one outside
// of tests and local tooling.
type AccessClaims struct {
	AccountID string `json:"uid"`
	DeviceID  string `json:"did"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(secret string, accountID string, deviceID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		AccountID: accountID,
		DeviceID:  deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   accountID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func ParseAccessToken(tokenStr string, secret string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AccessClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// NewCapabilityToken returns an opaque random playback token. The token is a
// bearer capability with no internal structure; its expiry lives in the
// grant store.
func NewCapabilityToken(length int) (string, error) {
	if length <= 0 {
		length = 32
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate capability token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
