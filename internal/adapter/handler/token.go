package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "storefront"

var ErrInvalidToken = errors.New("invalid browser token")

// BrowserTokens signs the browser ID handed to HTTP and gRPC clients. The
// token stands in for the browser's local storage handle.
type BrowserTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewBrowserTokens(secret string, ttl time.Duration) *BrowserTokens {
	return &BrowserTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewBrowser allocates a browser ID and its token.
func (t *BrowserTokens) NewBrowser() (browserID, token string, err error) {
	browserID = uuid.NewString()
	token, err = t.Issue(browserID)
	return browserID, token, err
}

func (t *BrowserTokens) Issue(browserID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   browserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign browser token: %w", err)
	}
	return signed, nil
}

// Parse returns the browser ID carried by token.
func (t *BrowserTokens) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
