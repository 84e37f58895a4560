package redis_adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TickLock - распределенная блокировка по id сохраненного поиска на Redis.
// SET NX EX со случайным токеном; снять блокировку может только тот, кто
// ее поставил - освобождение идет через Lua-скрипт, сверяющий токен.
type TickLock struct {
	client *redis.Client
	tokens sync.Map // searchID -> token текущего захвата
}

func NewTickLock(client *redis.Client) (*TickLock, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &TickLock{client: client}, nil
}

// releaseScript удаляет ключ, только если его значение совпадает с токеном.
// Так истекшая и перехваченная другим тиком блокировка не будет снята чужим Release.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func lockKey(searchID uuid.UUID) string {
	return "search-service:tick-lock:" + searchID.String()
}

// Acquire пытается захватить блокировку на ttl.
// false без ошибки - блокировку держит другой тик.
func (l *TickLock) Acquire(ctx context.Context, searchID uuid.UUID, ttl time.Duration) (bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey(searchID), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire tick lock: %w", err)
	}
	if !ok {
		return false, nil
	}

	l.tokens.Store(searchID, token)
	return true, nil
}

// Release снимает блокировку, если она все еще наша.
func (l *TickLock) Release(ctx context.Context, searchID uuid.UUID) error {
	value, ok := l.tokens.LoadAndDelete(searchID)
	if !ok {
		// Acquire не было или Release уже вызывали - снимать нечего.
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{lockKey(searchID)}, value).Err(); err != nil {
		return fmt.Errorf("failed to release tick lock: %w", err)
	}
	return nil
}

// NewRedisClient создает и проверяет подключение к Redis.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
