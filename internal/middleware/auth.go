package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tripcrew/pkg/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

type UserClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID
func IssueToken(secret string, userID int64, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates tokenString and returns its claims
func ParseToken(secret, tokenString string) (*UserClaims, error) {
	if secret == "" {
		return nil, errors.New("jwt secret not configured")
	}
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Auth validates the bearer token and adds the user claims to the context
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Printf("❌ No authorization header: %s %s", r.Method, r.URL.Path)
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			// Extract Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Printf("❌ Invalid authorization header format (parts: %d)", len(parts))
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := ParseToken(secret, parts[1])
			if err != nil {
				log.Printf("❌ Invalid token: %v", err)
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, *claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) (UserClaims, bool) {
	userClaims, ok := r.Context().Value(UserContextKey).(UserClaims)
	return userClaims, ok
}
