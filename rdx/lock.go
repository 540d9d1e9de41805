package rdx

import (
	"context"
	"errors"
	"sync"
	"time"

	"blackline/apperr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when the lock could not be taken before the
// wait budget or the context ran out.
var ErrLockTimeout = errors.New("rdx: lock wait timed out")

// LockFailure maps a Lock error for callers: a timed-out wait is retryable
// contention, anything else means redis is unreachable.
func LockFailure(err error) *apperr.Error {
	if errors.Is(err, ErrLockTimeout) {
		return apperr.Busy(err)
	}
	return apperr.Unavailable(err)
}

// Locker serialises a critical section identified by key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLocker is a per-process keyed mutex, used when redis is not configured.
// A key's entry lives only while someone holds or waits for it.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ll, ok := l.locks[key]
	if !ok {
		ll = &localLock{ch: make(chan struct{}, 1)}
		l.locks[key] = ll
	}
	ll.refs++
	l.mu.Unlock()

	select {
	case ll.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-ll.ch
				l.drop(key, ll)
			})
		}, nil
	case <-ctx.Done():
		l.drop(key, ll)
		return nil, ErrLockTimeout
	}
}

func (l *LocalLocker) drop(key string, ll *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ll.refs--
	if ll.refs == 0 {
		delete(l.locks, key)
	}
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker takes a SET NX PX lock so every API instance shares it.
type RedisLocker struct {
	Conn  *redis.Client
	TTL   time.Duration
	Retry time.Duration
	Wait  time.Duration
}

func NewRedisLocker(conn *redis.Client) *RedisLocker {
	return &RedisLocker{
		Conn:  conn,
		TTL:   5 * time.Second,
		Retry: 25 * time.Millisecond,
		Wait:  3 * time.Second,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = "lock:" + key
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.Wait)
	defer cancel()

	for {
		ok, err := l.Conn.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if ok {
			return func() {
				// the request context may already be done; release on a fresh one
				rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
				defer rcancel()
				releaseScript.Run(rctx, l.Conn, []string{key}, token)
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(l.Retry):
		}
	}
}

// NewLocker picks the redis locker when a connection is available.
func NewLocker(conn *redis.Client) Locker {
	if conn == nil {
		return NewLocalLocker()
	}
	return NewRedisLocker(conn)
}
