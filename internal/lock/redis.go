package lock

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	radix "github.com/mediocregopher/radix/v3"
)

const redisLockKey = "stocklock:%s"

// compare-and-delete so a lock that expired and was taken by someone else is
// never released by the previous owner.
var releaseScript = radix.NewEvalScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis holds stock locks as SET NX PX keys so several order-service
// instances share them.
type Redis struct {
	client radix.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

func NewRedis(client radix.Client, ttl, wait time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, wait: wait, retry: 25 * time.Millisecond}
}

// NewRedisPool dials a small pool for the locker.
func NewRedisPool(addr string) (radix.Client, error) {
	return radix.NewPool("tcp", addr, 10)
}

func (r *Redis) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	held := make([]string, 0, len(keys))
	release := func() {
		for _, k := range held {
			var n int
			if err := r.client.Do(releaseScript.Cmd(&n, k, token)); err != nil {
				log.Printf("[lock] release %s: %v", k, err)
			}
		}
		held = held[:0]
	}

	for _, k := range keys {
		key := fmt.Sprintf(redisLockKey, k)
		for {
			ok, err := r.tryAcquire(key, token)
			if err != nil {
				release()
				return nil, err
			}
			if ok {
				held = append(held, key)
				break
			}
			if r.wait > 0 && time.Now().After(deadline) {
				release()
				return nil, ErrLockTimeout
			}
			select {
			case <-ctx.Done():
				release()
				return nil, ctx.Err()
			case <-time.After(r.retry):
			}
		}
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (r *Redis) tryAcquire(key, token string) (bool, error) {
	var resp string
	mn := radix.MaybeNil{Rcv: &resp}
	ms := strconv.FormatInt(r.ttl.Milliseconds(), 10)
	if err := r.client.Do(radix.Cmd(&mn, "SET", key, token, "NX", "PX", ms)); err != nil {
		return false, err
	}
	return !mn.Nil && resp == "OK", nil
}
