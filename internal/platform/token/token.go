// Package token はログイン後に発行する HS256 署名付き JWT を扱います。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind はトークンの主体の種類です。
type Kind string

const (
	KindCompany  Kind = "company"
	KindEmployee Kind = "employee"
)

var (
	// ErrInvalidToken は署名・有効期限・形式が不正なトークンを表します。
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret は署名鍵が設定されていない場合に返されます。
	ErrMissingSecret = errors.New("token secret is not configured")
)

// Claims はトークンに含まれるクレームです。Subject は会社 ID または社員 ID です。
type Claims struct {
	Kind      Kind   `json:"kind"`
	CompanyID string `json:"companyId"`
	jwt.RegisteredClaims
}

// Issuer はトークンの発行と検証を行います。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer は Issuer を生成します。now が nil の場合は time.Now を使用します。
func NewIssuer(secret string, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token: ttl must be positive, got %s", ttl)
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Issue は subject に対するトークンと有効期限を返します。
func (i *Issuer) Issue(subject string, kind Kind, companyID string) (string, time.Time, error) {
	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)

	claims := Claims{
		Kind:      kind,
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse はトークンを検証しクレームを返します。
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || (claims.Kind != KindCompany && claims.Kind != KindEmployee) {
		return nil, fmt.Errorf("%w: missing subject or kind", ErrInvalidToken)
	}
	return claims, nil
}
