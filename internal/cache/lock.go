package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout блокировку не удалось взять за отведенное время.
var ErrLockTimeout = errors.New("lock wait timeout")

const lockPrefix = "lock:"

// Снимает блокировку, только если она все еще принадлежит владельцу токена.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker эксклюзивная блокировка по ключу поверх SET NX PX. Работает между
// несколькими экземплярами сервиса.
type Locker struct {
	client   *redis.Client
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
}

// NewLocker создает Locker. ttl ограничивает время жизни блокировки при
// падении владельца, wait ограничивает ожидание.
func NewLocker(c *Cache, ttl, wait time.Duration) *Locker {
	return &Locker{
		client:   c.Db,
		ttl:      ttl,
		wait:     wait,
		interval: 25 * time.Millisecond,
	}
}

// Lock берет блокировку key и возвращает функцию снятия.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	const op = "cache.Locker.Lock"
	token := uuid.NewString()
	redisKey := lockPrefix + key

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
			}, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%s: %w", op, ctx.Err())
			}
			return nil, fmt.Errorf("%s %s: %w", op, key, ErrLockTimeout)
		case <-ticker.C:
		}
	}
}
