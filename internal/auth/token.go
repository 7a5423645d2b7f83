package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/farmcore/farmcore/internal/shared"
)

// Claims is the JWT payload carrying the principal.
type Claims struct {
	UserID int64  `json:"uid"`
	FarmID int64  `json:"fid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds TokenIssuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the user.
func (t *TokenIssuer) Issue(u User) (string, time.Time, error) {
	now := t.now().UTC()
	expires := now.Add(t.ttl)
	claims := Claims{
		UserID: u.ID,
		FarmID: u.FarmID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Parse validates a token and returns the principal it carries.
func (t *TokenIssuer) Parse(raw string) (shared.Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, shared.E(shared.KindUnauthorized, "unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil || !token.Valid {
		return shared.Principal{}, shared.E(shared.KindUnauthorized, "invalid or expired token")
	}
	return shared.Principal{
		UserID: claims.UserID,
		FarmID: claims.FarmID,
		Role:   shared.Role(claims.Role),
	}, nil
}
