package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// Role is the capability level carried by a token
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// CanEdit reports whether the role may upload or delete harness files
func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleEditor
}

// IsAdmin reports whether the role may manage templates and settings
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

var ErrInvalidToken = errors.New("invalid token")

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// GetRoleFromClaims extracts the role claim; unknown roles are rejected
func GetRoleFromClaims(claims jwt.MapClaims) (Role, error) {
	raw, _ := claims["role"].(string)
	switch Role(raw) {
	case RoleAdmin, RoleEditor:
		return Role(raw), nil
	}
	return "", ErrInvalidToken
}

// GenerateRoleToken creates a signed HS256 token for the role
func GenerateRoleToken(role Role, jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"role": string(role),
		"jti":  GenerateULID(),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a candidate password
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
