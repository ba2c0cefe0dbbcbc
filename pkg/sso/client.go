package sso

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/atamsindonesia/aura/pkg/config"
	"github.com/atamsindonesia/aura/pkg/domain"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

const (
	verifyPath      = "/api/v1/auth/verify"
	defaultCacheTTL = 5 * time.Minute
	requestTimeout  = 10 * time.Second
)

// UserInfo is the identity Atlas returns for a verified token.
type UserInfo struct {
	UserID   string   `mapstructure:"user_id" json:"user_id"`
	Username string   `mapstructure:"username" json:"username"`
	Email    string   `mapstructure:"email" json:"email"`
	Roles    []string `mapstructure:"roles" json:"roles"`
	AppCode  string   `mapstructure:"app_code" json:"app_code"`
}

func (u *UserInfo) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Verifier is what the auth middleware depends on.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*UserInfo, error)
}

// AtlasClient verifies bearer tokens against the Atlas SSO service.
// Successful verifications are cached in redis keyed by token hash, repeated
// in-flight verifications of one token are collapsed, and a circuit breaker
// shields the app when Atlas is down.
type AtlasClient struct {
	httpClient *http.Client
	ssoURL     string
	appCode    string
	enc        *AtlasEncryption
	cache      *redis.Client
	breaker    *gobreaker.CircuitBreaker
	group      singleflight.Group
	logger     logrus.FieldLogger
}

// NewAtlasClient builds a client from the Atlas settings. cache may be nil,
// in which case every verification hits the SSO service.
func NewAtlasClient(cfg config.AtlasConfig, cache *redis.Client, logger logrus.FieldLogger) *AtlasClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "atlas-sso",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &AtlasClient{
		httpClient: &http.Client{Timeout: requestTimeout},
		ssoURL:     cfg.SSOURL,
		appCode:    cfg.AppCode,
		enc:        NewAtlasEncryption(cfg.EncryptionKey, cfg.EncryptionIV),
		cache:      cache,
		breaker:    breaker,
		logger:     logger,
	}
}

type verifyRequest struct {
	AppCode string `json:"app_code"`
	Token   string `json:"token"`
}

type verifyResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// VerifyToken resolves a bearer token to the user it belongs to.
func (c *AtlasClient) VerifyToken(ctx context.Context, token string) (*UserInfo, error) {
	if token == "" {
		return nil, domain.NewUnauthorizedError("authentication token required")
	}

	cacheKey := tokenCacheKey(token)
	if user := c.cachedUser(ctx, cacheKey); user != nil {
		return user, nil
	}

	result, err, _ := c.group.Do(cacheKey, func() (interface{}, error) {
		return c.verifyRemote(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	user, ok := result.(*UserInfo)
	if !ok {
		return nil, domain.NewInternalServerError("unexpected verification result", nil)
	}

	c.storeUser(ctx, cacheKey, token, user)
	return user, nil
}

func (c *AtlasClient) verifyRemote(ctx context.Context, token string) (*UserInfo, error) {
	encryptedToken, err := c.enc.Encrypt(token)
	if err != nil {
		return nil, domain.NewInternalServerError("failed to encrypt credentials", err)
	}

	body, err := json.Marshal(verifyRequest{AppCode: c.appCode, Token: encryptedToken})
	if err != nil {
		return nil, domain.NewInternalServerError("failed to build verification request", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ssoURL+verifyPath, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			// Not a service failure; do not trip the breaker on bad tokens.
			return nil, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("sso service returned status %d", resp.StatusCode)
		}

		var verifyResp verifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
			return nil, fmt.Errorf("failed to decode sso response: %w", err)
		}
		return &verifyResp, nil
	})
	if err != nil {
		c.logger.WithError(err).Error("atlas sso verification failed")
		return nil, domain.NewServiceUnavailableError("sso service unavailable")
	}

	verifyResp, ok := result.(*verifyResponse)
	if !ok || verifyResp == nil {
		return nil, domain.NewUnauthorizedError("invalid or expired token")
	}
	if !verifyResp.Success {
		return nil, domain.NewUnauthorizedError(verifyResp.Message)
	}

	var user UserInfo
	if err := mapstructure.Decode(verifyResp.Data, &user); err != nil {
		return nil, domain.NewInternalServerError("malformed sso user payload", err)
	}
	return &user, nil
}

func (c *AtlasClient) cachedUser(ctx context.Context, cacheKey string) *UserInfo {
	if c.cache == nil {
		return nil
	}

	raw, err := c.cache.Get(ctx, cacheKey).Result()
	if err != nil {
		return nil
	}

	var user UserInfo
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}
	return &user
}

func (c *AtlasClient) storeUser(ctx context.Context, cacheKey, token string, user *UserInfo) {
	if c.cache == nil {
		return
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return
	}

	ttl := cacheTTL(token)
	if err := c.cache.Set(ctx, cacheKey, raw, ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to cache sso verification")
	}
}

func tokenCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "atlas:token:" + hex.EncodeToString(sum[:])
}

// cacheTTL bounds the cache entry to the token's own expiry so a revoked-by-
// expiry token never outlives itself in the cache.
func cacheTTL(token string) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return defaultCacheTTL
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return defaultCacheTTL
	}

	until := time.Until(exp.Time)
	if until <= 0 {
		return time.Second
	}
	if until < defaultCacheTTL {
		return until
	}
	return defaultCacheTTL
}
