package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Удаляем ключ, только если он всё ещё наш: после истечения TTL
// блокировку мог взять другой экземпляр.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard: блокировка между экземплярами сервиса (SET NX PX).
// TTL должен быть заметно больше самого долгого запуска.
type RedisGuard struct {
	client *redis.Client
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	token string
}

func NewRedisGuard(client *redis.Client, key string, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, key: key, ttl: ttl}
}

func (g *RedisGuard) TryAcquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key, token, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX %s: %w", g.key, err)
	}
	if !ok {
		return false, nil
	}

	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
	return true, nil
}

func (g *RedisGuard) Release(ctx context.Context) error {
	g.mu.Lock()
	token := g.token
	g.token = ""
	g.mu.Unlock()

	if token == "" {
		return nil
	}

	err := releaseScript.Run(ctx, g.client, []string{g.key}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis release %s: %w", g.key, err)
	}
	return nil
}
