package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"retail-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

var jwtConfig *config.JWTConfig

// Token types carried in the token_type claim. The auth middleware only
// accepts access tokens; the refresh endpoint only accepts refresh tokens.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// UserClaims carries user identity and the token type
type UserClaims struct {
	Username  string `json:"username"`
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Initialize sets up the JWT utility with configuration
func Initialize(config *config.JWTConfig) {
	jwtConfig = config
}

// GenerateAccessToken creates a short-lived token used to authenticate requests
func GenerateAccessToken(username string, userID uint) (string, error) {
	if jwtConfig == nil {
		return "", errors.New("JWT configuration not initialized")
	}
	return generateToken(username, userID, TokenTypeAccess, jwtConfig.AccessTokenExpiration)
}

// GenerateRefreshToken creates a longer-lived token exchangeable for a new access token
func GenerateRefreshToken(username string, userID uint) (string, error) {
	if jwtConfig == nil {
		return "", errors.New("JWT configuration not initialized")
	}
	return generateToken(username, userID, TokenTypeRefresh, jwtConfig.RefreshTokenExpiration)
}

// GenerateTokenPair creates an access/refresh token pair for a user
func GenerateTokenPair(username string, userID uint) (access string, refresh string, err error) {
	access, err = GenerateAccessToken(username, userID)
	if err != nil {
		return "", "", err
	}
	refresh, err = GenerateRefreshToken(username, userID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func generateToken(username string, userID uint, tokenType string, lifetime time.Duration) (string, error) {
	claims := &UserClaims{
		Username:  username,
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.SigningKey))
}

// ValidateToken validates the token, checks its type and returns the claims
func ValidateToken(tokenString string, expectedType string) (*UserClaims, error) {
	if jwtConfig == nil {
		return nil, errors.New("JWT configuration not initialized")
	}

	signingKey := jwtConfig.SigningKey

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(signingKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("unexpected token type: %s", claims.TokenType)
	}

	return claims, nil
}
