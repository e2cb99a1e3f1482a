// Package auth issues and verifies the service's signed tokens.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// Token purposes. Access tokens carry PurposeAccess; e-mail links carry a
// single-purpose value so one can never stand in for the other.
const (
	PurposeAccess        = "access"
	PurposeVerifyEmail   = "verify_email"
	PurposeResetPassword = "reset_password"
)

const (
	VerifyEmailTTL   = 24 * time.Hour
	ResetPasswordTTL = time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongPurpose = errors.New("token issued for another purpose")
)

// TokenIssuer signs HS256 tokens with one shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, accessTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: accessTTL}
}

// Issue returns an access token for the user.
func (i *TokenIssuer) Issue(user *models.User) (string, error) {
	return i.sign(user, PurposeAccess, i.ttl, "")
}

// IssuePurpose returns a single-purpose token. Reset tokens are bound to
// the current password hash and stop working once the password changes.
func (i *TokenIssuer) IssuePurpose(user *models.User, purpose string, ttl time.Duration) (string, error) {
	fp := ""
	if purpose == PurposeResetPassword {
		fp = Fingerprint(user.Password)
	}
	return i.sign(user, purpose, ttl, fp)
}

func (i *TokenIssuer) sign(user *models.User, purpose string, ttl time.Duration, fp string) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID:      user.ID,
		Email:       user.Email,
		Purpose:     purpose,
		Fingerprint: fp,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return t, nil
}

// Parse verifies the signature, expiry and purpose of a token.
func (i *TokenIssuer) Parse(tokenString, purpose string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	got := claims.Purpose
	if got == "" {
		// Tokens minted before purposes existed are access tokens.
		got = PurposeAccess
	}
	if got != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

// Fingerprint is a short digest of a password hash.
func Fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
