package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"olimpiad/internal/dto/req"
	"olimpiad/internal/dto/resp"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	RefreshTokenTTL = 7 * 24 * time.Hour
	AccessTokenTTL  = 15 * time.Minute
	RedisKeyPrefix  = "olimpiad:auth:session:"
	Issuer          = "olimpiad-api"

	adminUserID = "admin"
	adminRole   = "admin"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrSessionExpired     = errors.New("session expired")
	ErrAuthUnavailable    = errors.New("auth session store unavailable")
)

// AuthOptions configures the single admin identity and token lifetimes.
type AuthOptions struct {
	SigningKey      []byte
	AdminUsername   string
	AdminPassword   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// AuthService issues JWT pairs for the schema administrator. Refresh tokens
// are allow-listed in redis, one live session per user.
type AuthService struct {
	redis *redis.Client
	opts  AuthOptions
}

type UserClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"sub"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthService(rdb *redis.Client, opts AuthOptions) *AuthService {
	if opts.AccessTokenTTL <= 0 {
		opts.AccessTokenTTL = AccessTokenTTL
	}
	if opts.RefreshTokenTTL <= 0 {
		opts.RefreshTokenTTL = RefreshTokenTTL
	}
	return &AuthService{redis: rdb, opts: opts}
}

// Login checks the admin credentials and returns a token pair.
func (s *AuthService) Login(ctx context.Context, in req.LoginReq) (*resp.TokenResp, error) {
	if !s.credentialsMatch(in.Username, in.Password) {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokens(ctx, adminUserID, in.Username, adminRole)
	if err != nil {
		return nil, err
	}
	tokens.User = resp.UserInfo{
		ID:       adminUserID,
		Username: in.Username,
		Role:     adminRole,
	}
	return tokens, nil
}

func (s *AuthService) credentialsMatch(username, password string) bool {
	if s.opts.AdminUsername == "" || s.opts.AdminPassword == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.opts.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.AdminPassword)) == 1
	return userOK && passOK
}

// ParseAccessToken validates a bearer token and returns its claims.
func (s *AuthService) ParseAccessToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, s.keyFunc,
		jwt.WithIssuer(Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Refresh rotates the token pair. The presented refresh token must be the
// one currently stored for the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*resp.TokenResp, error) {
	claims, err := s.ParseAccessToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if s.redis == nil {
		return nil, ErrAuthUnavailable
	}

	stored, err := s.redis.Get(ctx, sessionKey(claims.UserID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return nil, ErrTokenInvalid
	}

	return s.generateTokens(ctx, claims.UserID, claims.Username, claims.Role)
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, sessionKey(userID)).Err()
}

func (s *AuthService) keyFunc(*jwt.Token) (any, error) {
	return s.opts.SigningKey, nil
}

func sessionKey(userID string) string {
	return fmt.Sprintf("%s%s", RedisKeyPrefix, userID)
}

func (s *AuthService) sign(userID, username, role string, now time.Time, ttl time.Duration, jti string) (string, error) {
	claims := UserClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.SigningKey)
}

func (s *AuthService) generateTokens(ctx context.Context, userID, username, role string) (*resp.TokenResp, error) {
	now := time.Now()
	accessToken, err := s.sign(userID, username, role, now, s.opts.AccessTokenTTL, "")
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.sign(userID, username, role, now, s.opts.RefreshTokenTTL, uuid.NewString())
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, sessionKey(userID), refreshToken, s.opts.RefreshTokenTTL).Err(); err != nil {
			return nil, err
		}
	}

	return &resp.TokenResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.opts.AccessTokenTTL.Seconds()),
	}, nil
}
