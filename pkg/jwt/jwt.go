package jwtutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const Issuer = "visionboard"

var (
	ErrNoSigningKey   = errors.New("signing key is not configured")
	ErrMissingSubject = errors.New("token has no subject")
)

// Claims identify the session holder. Role is informational only; the
// server re-reads the persisted role on every request.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies RS256 access tokens bound to one key pair.
type Signer struct {
	key    *rsa.PrivateKey
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewSigner(key *rsa.PrivateKey, ttl time.Duration) *Signer {
	return &Signer{
		key: key,
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

func (s *Signer) TTL() time.Duration { return s.ttl }

// Issue signs a token for the user and reports when it stops being valid.
func (s *Signer) Issue(userID, role string) (string, time.Time, error) {
	if s == nil || s.key == nil {
		return "", time.Time{}, ErrNoSigningKey
	}
	issued := s.now()
	expires := issued.Add(s.ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Verify checks signature, issuer and expiry. A token without uid falls
// back to its subject.
func (s *Signer) Verify(raw string) (*Claims, error) {
	if s == nil || s.key == nil {
		return nil, ErrNoSigningKey
	}

	var claims Claims
	_, err := s.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return &s.key.PublicKey, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrMissingSubject
	}
	return &claims, nil
}

// NewOpaqueToken returns 32 random bytes, hex encoded. Refresh tokens use it.
func NewOpaqueToken() (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}

// Digest is the form opaque tokens are stored in.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
