package service

import (
	"context"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/middleware"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	accounts  repository.AccountRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(accounts repository.AccountRepository, jwtSecret string, expirationHours int) AuthService {
	return &authService{
		accounts:  accounts,
		jwtSecret: jwtSecret,
		tokenTTL:  time.Duration(expirationHours) * time.Hour,
	}
}

// Login verifies credentials and mints a signed access token. Every failure
// path returns the same message so usernames cannot be probed.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	invalid := apierror.NewValidationMsg("invalid credentials")

	acc, err := s.accounts.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, invalid
	}
	if !acc.Active {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalid
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		UserID:    acc.ID.String(),
		Username:  acc.Username,
		Role:      acc.Role,
		CompanyID: acc.CompanyID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	log.Info().Str("username", acc.Username).Str("role", acc.Role).Msg("login")

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		User: dto.AccountInfo{
			ID:        acc.ID.String(),
			Username:  acc.Username,
			FullName:  acc.FullName,
			Role:      acc.Role,
			CompanyID: acc.CompanyID.String(),
		},
	}, nil
}
