package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrAccountBusy is returned when another invocation holds the account lease.
// The caller reports it as a collaborator failure so the host rolls back and
// may re-deliver the trigger; this package performs no waiting of its own.
var ErrAccountBusy = errors.New("account lease held by another invocation")

// AccountLocker serializes resolver runs per account.
type AccountLocker interface {
	Acquire(ctx context.Context, accountID string) (release func(), err error)
}

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisAccountLocker builds a lease-based locker on Redis. The lease is a
// SET NX PX key fenced by a random token; release deletes the key only while
// the token still matches, so an expired lease cannot release a successor's.
func NewRedisAccountLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) AccountLocker {
	return &redisLocker{client: client, ttl: ttl, logger: logger}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

func (l *redisLocker) Acquire(ctx context.Context, accountID string) (func(), error) {
	key := "email-approval:account-lease:" + accountID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccountBusy
	}

	release := func() {
		if _, err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Result(); err != nil {
			l.logger.Warn("failed to release account lease",
				zap.String("account_id", accountID),
				zap.Error(err))
		}
	}
	return release, nil
}
