package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AdminIssuer is the iss claim of admin session tokens.
const AdminIssuer = "exterra-admin"

type adminClaims struct {
	AdminID string `json:"admin_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// AdminSession is what a valid admin token carries.
type AdminSession struct {
	AdminID   uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// GenerateAdminToken signs an HS256 token for the administrator.
func GenerateAdminToken(secret string, adminID uuid.UUID, email string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)
	claims := &adminClaims{
		AdminID: adminID.String(),
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    AdminIssuer,
			Subject:   adminID.String(),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ParseAdminToken validates the token and returns the admin session.
func ParseAdminToken(secret, tokenString string) (AdminSession, error) {
	token, err := jwt.ParseWithClaims(tokenString, &adminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(AdminIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return AdminSession{}, err
	}

	claims, ok := token.Claims.(*adminClaims)
	if !ok || !token.Valid {
		return AdminSession{}, jwt.ErrTokenInvalidClaims
	}

	id, err := uuid.Parse(claims.AdminID)
	if err != nil {
		return AdminSession{}, jwt.ErrTokenInvalidClaims
	}
	return AdminSession{AdminID: id, Email: claims.Email, ExpiresAt: claims.ExpiresAt.Time}, nil
}
