package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"

	"github.com/twuijri/Vex/internal/models"
	"github.com/twuijri/Vex/internal/repository"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const tokenTTL = 24 * time.Hour

type AuthService interface {
	// RegisterOperator creates the dashboard account. Only the first
	// registration succeeds; the dashboard is single-operator.
	RegisterOperator(ctx context.Context, username, password string) error
	// Login verifies credentials and returns a signed JWT with its expiry.
	Login(ctx context.Context, username, password string) (string, time.Time, error)
}

type authService struct {
	users     repository.DashboardUserRepository
	jwtSecret []byte
	logger    *zap.Logger
}

func NewAuthService(users repository.DashboardUserRepository, jwtSecret []byte, logger *zap.Logger) AuthService {
	return &authService{users: users, jwtSecret: jwtSecret, logger: logger}
}

func (s *authService) RegisterOperator(ctx context.Context, username, password string) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if count > 0 {
		return ErrUserAlreadyExists
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.Create(ctx, &models.DashboardUser{
		Username:     username,
		PasswordHash: passwordHash,
	}); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Dashboard operator registered", zap.String("username", username))
	return nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Error("Failed to get user by username", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user == nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	if !verifyPassword(user.PasswordHash, password) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expirationTime := time.Now().Add(tokenTTL)
	claims := &models.Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in", zap.String("username", user.Username))
	return tokenString, expirationTime, nil
}

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// hashPassword hashes the password with Argon2id and encodes the parameters
// alongside the salt and hash: $argon2id$v=19$m=65536,t=1,p=4$SALT$HASH.
func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// verifyPassword re-hashes the password with the parameters stored in the
// encoded hash and compares in constant time.
func verifyPassword(encoded, password string) bool {
	sections := strings.Split(encoded, "$")
	if len(sections) != 6 || sections[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(sections[2], "v=%d", &version); err != nil {
		return false
	}

	var m, t, p uint32
	if _, err := fmt.Sscanf(sections[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(sections[4])
	if err != nil {
		return false
	}
	hash, err := base64.RawStdEncoding.DecodeString(sections[5])
	if err != nil {
		return false
	}

	comparison := argon2.IDKey([]byte(password), salt, t, m, uint8(p), uint32(len(hash)))
	return subtle.ConstantTimeCompare(comparison, hash) == 1
}
