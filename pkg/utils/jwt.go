package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"org-task-backend/pkg/models"
)

// JWTService issues and validates HS256 bearer tokens bound to a user's
// email identity.
type JWTService struct {
	secretKey []byte
	expiry    time.Duration
}

// NewJWTService creates a JWT service with the given signing secret and
// token lifetime.
func NewJWTService(secretKey string, expiry time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		expiry:    expiry,
	}
}

// GenerateAccessToken signs a time-limited access token for the user
func (j *JWTService) GenerateAccessToken(userID int64, email string) (string, int64, error) {
	now := time.Now()
	expiry := now.Add(j.expiry)

	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Exp:    expiry.Unix(),
		Iat:    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate access token: %w", err)
	}

	return tokenString, expiry.Unix(), nil
}

// ValidateToken parses the token and returns its claims when the
// signature is valid and the token has not expired.
func (j *JWTService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if time.Now().Unix() > claims.Exp {
		return nil, fmt.Errorf("token expired")
	}

	return claims, nil
}
