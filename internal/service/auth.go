package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
)

// TokenClaims is the identity carried by a validated auth token.
type TokenClaims struct {
	UserID    uint
	TokenID   string
	ExpiresAt time.Time
}

// LoginInput is the token login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenDenylist remembers logged-out tokens until they expire.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type authClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthService issues and checks auth tokens.
type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	ttl       time.Duration
	denylist  TokenDenylist
}

// NewAuthService creates a new AuthService. denylist may be nil, in which case
// logout cannot revoke tokens before they expire.
func NewAuthService(db *gorm.DB, jwtSecret string, ttl time.Duration, denylist TokenDenylist) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		denylist:  denylist,
	}
}

// Login exchanges credentials for a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	if err := validate(in); err != nil {
		return "", err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", strings.TrimSpace(in.Email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("loading user: %w", err)
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return "", NewValidationError("non_field_errors", "Unable to log in with provided credentials.")
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return "", err
	}
	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Msg("user logged in")
	return token, nil
}

// GenerateToken signs a token for userID.
func (s *AuthService) GenerateToken(userID uint) (string, error) {
	now := time.Now()
	claims := authClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// ValidateToken checks the signature, expiry and revocation of a token.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	var claims authClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, Unauthorized("Invalid token.")
	}
	if claims.UserID == 0 || claims.ID == "" {
		return nil, Unauthorized("Invalid token.")
	}

	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("checking token revocation: %w", err)
		}
		if revoked {
			return nil, Unauthorized("Invalid token.")
		}
	}

	return &TokenClaims{
		UserID:    claims.UserID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *TokenClaims) error {
	if s.denylist == nil {
		logging.Ctx(ctx).Debug().Msg("no token denylist configured, logout is client-side only")
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	logging.Ctx(ctx).Info().Uint("user_id", claims.UserID).Msg("user logged out")
	return nil
}

// RedisDenylist keeps revoked token ids in Redis with the token's remaining TTL.
type RedisDenylist struct {
	client *redis.Client
	prefix string
}

// NewRedisDenylist creates a deny-list using client.
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client, prefix: "auth:revoked:"}
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return d.client.Set(ctx, d.prefix+tokenID, 1, ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
