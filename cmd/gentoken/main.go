package main

// Dev utility: mint a signed access token without going through /v1/auth/login.
// Usage:
//   go run ./cmd/gentoken -secret dev-secret -user-id <uuid> -company-id <uuid> -role admin

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	secret := flag.String("secret", "", "JWT signing secret (required)")
	userID := flag.String("user-id", "", "user uuid (required)")
	username := flag.String("username", "dev", "username claim")
	role := flag.String("role", "admin", "operator | supervisor | admin")
	companyID := flag.String("company-id", "", "company uuid (required)")
	hours := flag.Int("hours", 8, "token lifetime in hours")
	flag.Parse()

	if *secret == "" || *userID == "" || *companyID == "" {
		flag.Usage()
		os.Exit(2)
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		UserID:    *userID,
		Username:  *username,
		Role:      *role,
		CompanyID: *companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(*hours) * time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
