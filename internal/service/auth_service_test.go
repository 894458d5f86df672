package service

import (
	"context"
	"testing"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/middleware"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func seedAccount(t *testing.T, repo *stubAccountRepo, username, password, role string, active bool) *model.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	acc := &model.Account{
		ID: uuid.New(), Username: username, FullName: "Test User",
		PasswordHash: string(hash), Role: role, CompanyID: uuid.New(), Active: active,
	}
	repo.byUsername[username] = acc
	return acc
}

func TestLoginIssuesSignedToken(t *testing.T) {
	repo := newStubAccountRepo()
	acc := seedAccount(t, repo, "alice", "s3cret", "supervisor", true)
	svc := NewAuthService(repo, testSecret, 8)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, acc.ID.String(), resp.User.ID)
	assert.Equal(t, "supervisor", resp.User.Role)

	// Token round-trips with the claims the auth middleware reads
	claims := &middleware.JWTClaims{}
	parsed, err := jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, acc.ID.String(), claims.UserID)
	assert.Equal(t, acc.CompanyID.String(), claims.CompanyID)
	assert.Equal(t, "supervisor", claims.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newStubAccountRepo()
	seedAccount(t, repo, "alice", "s3cret", "operator", true)
	seedAccount(t, repo, "bob", "hunter2", "operator", false)
	svc := NewAuthService(repo, testSecret, 8)

	cases := []dto.LoginRequest{
		{Username: "alice", Password: "wrong"},
		{Username: "nobody", Password: "s3cret"},
		{Username: "bob", Password: "hunter2"}, // correct password, inactive account
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), &req)
		require.Error(t, err)
		assert.EqualError(t, err, "invalid credentials")
	}
}
