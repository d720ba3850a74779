package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by access tokens: the (role, id) pair the core trusts.
type Claims struct {
	Role model.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

type JWTService interface {
	GenerateAccessToken(user *model.User) (string, error)
	ValidateToken(token string) (model.Actor, error)
}

type jwtService struct {
	secret      []byte
	expiryHours int
}

func NewJWTService(secret string, expiryHours int) JWTService {
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &jwtService{secret: []byte(secret), expiryHours: expiryHours}
}

func (s *jwtService) GenerateAccessToken(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: model.ActorRole(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expiryHours) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateToken(tokenString string) (model.Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Actor{}, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Actor{}, ErrInvalidToken
	}
	return model.Actor{Role: claims.Role, ID: id}, nil
}
