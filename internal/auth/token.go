// Package auth issues and verifies the signed tokens that grant access to
// one editing session.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ScopeEdit = "edit"
	ScopeView = "view"
)

// Claims bind a token to a session. Sub is the session ID.
type Claims struct {
	Sub   string `json:"sub"`
	Scope string `json:"scope"`
	JTI   string `json:"jti"`
	Exp   int64  `json:"exp"`
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
	ErrWrongSession = errors.New("token is for another session")
	ErrReadOnly     = errors.New("token does not allow editing")
)

func IssueToken(secret []byte, claims Claims) (string, error) {
	payloadBytes, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	signature := sign(secret, payload)
	return payload + "." + signature, nil
}

// IssueSessionToken issues a token for session valid for ttl.
func IssueSessionToken(secret []byte, session, scope, jti string, ttl time.Duration) (string, Claims, error) {
	claims := Claims{Sub: session, Scope: scope, JTI: jti, Exp: time.Now().Add(ttl).Unix()}
	token, err := IssueToken(secret, claims)
	return token, claims, err
}

func ParseToken(secret []byte, token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return Claims{}, ErrInvalidToken
	}
	payload := parts[0]
	signature := parts[1]

	expected := sign(secret, payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return Claims{}, ErrInvalidToken
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	if claims.Sub == "" || claims.JTI == "" || claims.Exp == 0 {
		return Claims{}, ErrInvalidToken
	}
	if claims.Scope != ScopeEdit && claims.Scope != ScopeView {
		return Claims{}, ErrInvalidToken
	}
	if time.Now().Unix() >= claims.Exp {
		return Claims{}, ErrExpiredToken
	}
	return claims, nil
}

// Authorize checks that claims cover session, and editing when write is
// set.
func (c Claims) Authorize(session string, write bool) error {
	if c.Sub != session {
		return ErrWrongSession
	}
	if write && c.Scope != ScopeEdit {
		return ErrReadOnly
	}
	return nil
}

func sign(secret []byte, payload string) string {
	sum := hmac.New(sha256.New, secret)
	_, _ = sum.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(sum.Sum(nil))
}
