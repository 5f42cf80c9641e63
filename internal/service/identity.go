package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rocketscienceinc/gameroom-backend/internal/pkg"
)

var ErrInvalidToken = errors.New("invalid participant token")

// IdentityService mints and verifies the opaque participant keys the core
// operates on. The key is the token subject; nothing in the core ever looks
// inside it.
type IdentityService interface {
	Issue() (string, error)
	ParticipantKey(token string) (string, error)
}

type identityService struct {
	secretKey string
}

func NewIdentityService(secretKey string) IdentityService {
	return &identityService{
		secretKey: secretKey,
	}
}

func (that *identityService) Issue() (string, error) {
	claims := jwt.MapClaims{
		"sub": pkg.NewID(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(that.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (that *identityService) ParticipantKey(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, token.Header["alg"])
		}

		return []byte(that.secretKey), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidToken
	}

	return subject, nil
}
