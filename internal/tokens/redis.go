package tokens

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/musicjacker/backend/pkg/logger"
)

const tokenKeyPrefix = "download:tokens:"

// redisAuthority shares the token table between instances. Expiry is
// delegated to Redis key TTLs.
type redisAuthority struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisAuthority(client *redis.Client, log logger.Logger) Authority {
	return &redisAuthority{client: client, logger: log}
}

func (a *redisAuthority) Create(path string, ttl time.Duration) (string, error) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := a.client.Set(context.Background(), tokenKeyPrefix+token, path, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (a *redisAuthority) Validate(token string) (string, bool) {
	path, err := a.client.Get(context.Background(), tokenKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		a.logger.Errorf("token lookup failed: %v", err)
		return "", false
	}
	return path, true
}

func (a *redisAuthority) Revoke(token string) {
	if err := a.client.Del(context.Background(), tokenKeyPrefix+token).Err(); err != nil {
		a.logger.Warnf("token revoke failed: %v", err)
	}
}
