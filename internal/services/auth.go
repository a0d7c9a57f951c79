package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/types"
)

// AuthContext is what the middleware attaches to a request once a bearer
// token checks out.
type AuthContext struct {
	UserID string
	Email  string
}

type AuthService interface {
	Login(ctx context.Context, email, name string) (*types.User, string, error)
	VerifyToken(tokenString string) (*AuthContext, error)
}

type authService struct {
	log          *logger.Logger
	userService  UserService
	jwtSecretKey []byte
	accessTTL    time.Duration
}

func NewAuthService(log *logger.Logger, userService UserService, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		userService:  userService,
		jwtSecretKey: []byte(jwtSecretKey),
		accessTTL:    accessTTL,
	}
}

// Login gets or creates the account for an email and hands back a signed
// access token. There is no password step: identity is asserted by the
// upstream identity provider, this token just scopes API access.
func (as *authService) Login(ctx context.Context, email, name string) (*types.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, "", fmt.Errorf("email is required: %w", ErrInvalidInput)
	}

	user, err := as.userService.GetOrCreate(ctx, email, name)
	if err != nil {
		return nil, "", fmt.Errorf("get or create user: %w", err)
	}

	token, err := as.issueToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue access token: %w", err)
	}
	return user, token, nil
}

func (as *authService) issueToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(as.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecretKey)
}

func (as *authService) VerifyToken(tokenString string) (*AuthContext, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.jwtSecretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	email, _ := claims["email"].(string)
	return &AuthContext{UserID: sub, Email: email}, nil
}
