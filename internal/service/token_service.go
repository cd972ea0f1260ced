package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vitrine-next/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenSecretMissing = errors.New("token secret is not configured")
	ErrTokenInvalid       = errors.New("token is invalid")
)

// AdminClaims 管理端令牌声明，由账号系统签发
type AdminClaims struct {
	AdminID  uint     `json:"admin_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
	IsSuper  bool     `json:"is_super"`
	jwt.RegisteredClaims
}

// UserClaims 店铺前台令牌声明
type UserClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService HS256 令牌校验；签发仅供种子脚本和测试使用
type TokenService struct {
	admin config.JWTConfig
	user  config.JWTConfig
	now   func() time.Time
}

// NewTokenService 创建令牌服务
func NewTokenService(admin, user config.JWTConfig) *TokenService {
	return &TokenService{admin: admin, user: user}
}

// AdminEnabled 是否配置了管理端密钥
func (s *TokenService) AdminEnabled() bool {
	return s != nil && strings.TrimSpace(s.admin.SecretKey) != ""
}

// UserEnabled 是否配置了前台密钥
func (s *TokenService) UserEnabled() bool {
	return s != nil && strings.TrimSpace(s.user.SecretKey) != ""
}

// ParseAdminToken 校验管理端令牌
func (s *TokenService) ParseAdminToken(raw string) (*AdminClaims, error) {
	if !s.AdminEnabled() {
		return nil, ErrTokenSecretMissing
	}
	claims := &AdminClaims{}
	if err := s.parse(raw, s.admin, claims); err != nil {
		return nil, err
	}
	if claims.AdminID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseUserToken 校验前台令牌
func (s *TokenService) ParseUserToken(raw string) (*UserClaims, error) {
	if !s.UserEnabled() {
		return nil, ErrTokenSecretMissing
	}
	claims := &UserClaims{}
	if err := s.parse(raw, s.user, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IssueAdminToken 签发管理端令牌
func (s *TokenService) IssueAdminToken(claims AdminClaims, ttl time.Duration) (string, error) {
	if !s.AdminEnabled() {
		return "", ErrTokenSecretMissing
	}
	claims.RegisteredClaims = s.registeredClaims(s.admin, ttl)
	return sign(claims, s.admin.SecretKey)
}

// IssueUserToken 签发前台令牌
func (s *TokenService) IssueUserToken(userID uint, ttl time.Duration) (string, error) {
	if !s.UserEnabled() {
		return "", ErrTokenSecretMissing
	}
	claims := UserClaims{UserID: userID, RegisteredClaims: s.registeredClaims(s.user, ttl)}
	return sign(claims, s.user.SecretKey)
}

func (s *TokenService) parse(raw string, cfg config.JWTConfig, claims jwt.Claims) error {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer := strings.TrimSpace(cfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	if s.now != nil {
		options = append(options, jwt.WithTimeFunc(s.now))
	}
	token, err := jwt.NewParser(options...).ParseWithClaims(strings.TrimSpace(raw), claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.SecretKey), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}

func (s *TokenService) registeredClaims(cfg config.JWTConfig, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	if s.now != nil {
		now = s.now()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return jwt.RegisteredClaims{
		Issuer:    strings.TrimSpace(cfg.Issuer),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
