// Package auth implements the credential-issuance hook: minting and
// verifying short-lived bearer tokens scoped to a (subject, workspace)
// pair. It deliberately stops there — no login flow, no refresh
// tokens, no RBAC. The REST and WebSocket layers treat an absent
// token as the open-access default.
package auth

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

// DefaultTokenExpiry is how long an issued token remains valid when no
// explicit expiry is configured.
const DefaultTokenExpiry = 15 * time.Minute

// Claims identifies who a token was issued for and which workspace it
// scopes access to.
type Claims struct {
	Subject   string `json:"sub"`
	Workspace string `json:"workspace"`
	jwt.StandardClaims
}

// CredentialIssuer mints and verifies bearer tokens for a
// (subject, workspace) pair.
type CredentialIssuer interface {
	Issue(subject, workspace string) (string, error)
	Verify(token string) (Claims, error)
}

// JWTIssuer is a CredentialIssuer backed by HMAC-signed JWTs.
type JWTIssuer struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewJWTIssuer builds a JWTIssuer signing with secret. expiry
// defaults to DefaultTokenExpiry when zero.
func NewJWTIssuer(secret []byte, expiry time.Duration) *JWTIssuer {
	if expiry == 0 {
		expiry = DefaultTokenExpiry
	}
	return &JWTIssuer{secret: secret, expiry: expiry, issuer: "agentsvc"}
}

// Issue mints a bearer token scoped to (subject, workspace), valid for
// the issuer's configured expiry.
func (i *JWTIssuer) Issue(subject, workspace string) (string, error) {
	now := time.Now()
	claims := Claims{
		Subject:   subject,
		Workspace: workspace,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.expiry).Unix(),
			Issuer:    i.issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", svcerrors.Wrap(svcerrors.KindInternal, "sign credential token", err)
	}
	return signed, nil
}

// Verify parses and validates token, returning its claims if the
// signature is valid and it has not expired.
func (i *JWTIssuer) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return Claims{}, svcerrors.Wrap(svcerrors.KindInvalidInput, "invalid credential token", err)
	}
	if !parsed.Valid {
		return Claims{}, svcerrors.New(svcerrors.KindInvalidInput, "credential token is not valid")
	}
	return claims, nil
}
