// Package identity turns identity-provider access tokens into acting users.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lsablog/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken means the request carried no bearer token.
	ErrNoToken = errors.New("no bearer token")
	// ErrInvalidToken covers every verification failure.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims mirrors the access tokens issued by the hosted auth provider.
type Claims struct {
	Email        string       `json:"email,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// UserMetadata is the free-form profile block attached at sign-up.
type UserMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Verifier validates HS256 tokens signed with the provider's shared secret.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewVerifier returns a verifier. Empty issuer or audience are not checked.
func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, audience: audience, now: time.Now}
}

// FromAuthorizationHeader extracts and verifies a "Bearer <token>" header.
func (v *Verifier) FromAuthorizationHeader(header string) (*models.ActingUser, error) {
	if strings.TrimSpace(header) == "" {
		return nil, ErrNoToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return v.Verify(strings.TrimSpace(token))
}

// Verify parses token and maps its claims onto an ActingUser.
func (v *Verifier) Verify(token string) (*models.ActingUser, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &models.ActingUser{
		ID:          claims.Subject,
		DisplayName: displayName(claims),
		AvatarURL:   claims.UserMetadata.AvatarURL,
		Email:       claims.Email,
	}, nil
}

// displayName prefers the profile name, then the mailbox part of the email.
func displayName(c Claims) string {
	switch {
	case c.UserMetadata.FullName != "":
		return c.UserMetadata.FullName
	case c.UserMetadata.Name != "":
		return c.UserMetadata.Name
	case c.Email != "":
		local, _, _ := strings.Cut(c.Email, "@")
		return local
	default:
		return ""
	}
}

// Issue signs a token for user valid for ttl. It backs the operator CLI and tests;
// production tokens come from the identity provider.
func (v *Verifier) Issue(user models.ActingUser, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Email: user.Email,
		UserMetadata: UserMetadata{
			FullName:  user.DisplayName,
			AvatarURL: user.AvatarURL,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
