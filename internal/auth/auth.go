package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role required for the admin chat endpoints. Tokens are
// issued by the admin panel's login service; this service only verifies.
const RoleAdmin = "admin"

// Claims mirrors the token payload the login service signs: {userId, email,
// role} plus the registered claims.
type Claims struct {
	UserID int    `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	jwtSecret string
}

func NewService(secret string) *Service {
	return &Service{jwtSecret: secret}
}

// ValidateToken parses and verifies an HS256 token, returning the user id
// and role.
func (s *Service) ValidateToken(tokenString string) (int, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return 0, "", err
	}
	if !token.Valid {
		return 0, "", errors.New("invalid token")
	}
	return claims.UserID, claims.Role, nil
}
