package utils

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// LinkClaims is the payload of a device link token. The cloud account issues
// one signed token per device enrollment; the device never mints tokens.
type LinkClaims struct {
	BusinessID   string `json:"business_id"`
	BusinessName string `json:"business_name"`
	jwt.RegisteredClaims
}

var ErrInvalidLinkToken = errors.New("invalid or expired link token")

// ParseLinkToken validates a link token with the shared secret and extracts
// the business identity.
func ParseLinkToken(tokenString string, secret []byte) (*LinkClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &LinkClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidLinkToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidLinkToken
	}

	claims, ok := token.Claims.(*LinkClaims)
	if !ok || claims.BusinessID == "" {
		return nil, ErrInvalidLinkToken
	}
	return claims, nil
}

// GenerateLinkToken signs a link token. Only used by tests and provisioning
// tooling; production tokens come from the cloud side.
func GenerateLinkToken(businessID, businessName string, secret []byte) (string, error) {
	claims := &LinkClaims{
		BusinessID:   businessID,
		BusinessName: businessName,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
