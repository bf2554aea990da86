package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "airdrop-bot"

type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTService signs with JWT_SECRET. Without one a random secret is used,
// so tokens do not survive a restart.
func NewJWTService(cfg *config.Config) *JWTService {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		rand.Read(secret)
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = TTLUserSession
	}

	return &JWTService{secret: secret, ttl: ttl}
}

func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

func (s *JWTService) GenerateToken(userID, sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, expiresAt, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
