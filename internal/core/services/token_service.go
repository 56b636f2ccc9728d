package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type TokenService struct {
	secretKey  []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	userRepo   domain.UserRepository
}

func NewTokenService(secretKey string, issuer string, accessTTL, refreshTTL time.Duration, userRepo domain.UserRepository) *TokenService {
	return &TokenService{
		secretKey:  []byte(secretKey),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		userRepo:   userRepo,
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// IssuePair signs a fresh access and refresh token for userID.
func (s *TokenService) IssuePair(userID string) (*TokenPair, error) {
	access, err := s.GenerateToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(userID, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

func (s *TokenService) GenerateToken(userID string) (string, error) {
	return s.sign(userID, tokenTypeAccess, s.accessTTL)
}

func (s *TokenService) sign(userID, typ string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
		"iss": s.issuer,
		"typ": typ,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("token service: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken accepts only access tokens and returns the user they were issued to.
func (s *TokenService) ValidateToken(tokenString string) (string, error) {
	return s.validate(tokenString, tokenTypeAccess)
}

func (s *TokenService) ValidateRefreshToken(tokenString string) (string, error) {
	userID, err := s.validate(tokenString, tokenTypeRefresh)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidRefreshToken, err)
	}
	return userID, nil
}

func (s *TokenService) validate(tokenString, typ string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	if iss, ok := claims["iss"].(string); !ok || iss != s.issuer {
		return "", fmt.Errorf("invalid token issuer")
	}

	if t, _ := claims["typ"].(string); t != typ {
		return "", fmt.Errorf("invalid token type")
	}

	userID, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("invalid token subject")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return "", fmt.Errorf("user no longer exists or db error: %w", err)
	}

	return userID, nil
}
