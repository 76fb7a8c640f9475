package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ErrLeaseHeld is returned when another process owns the writer lease
var ErrLeaseHeld = errors.New("writer lease held by another process")

const writerLeaseKey = "lease:betledger:writer"

// releaseLua deletes the lease only if the caller still owns it
const releaseLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// refreshLua extends the lease only if the caller still owns it
const refreshLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`

// WriterLease makes one process the ledger writer across replicas. The holder
// refreshes it at a third of the TTL; losing it cancels the lease context.
type WriterLease struct {
	rdb       *redis.Client
	ttl       time.Duration
	token     string
	releaseSc *redis.Script
	refreshSc *redis.Script

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisClient creates a client and verifies connectivity
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

// NewWriterLease creates a lease with the given TTL
func NewWriterLease(rdb *redis.Client, ttl time.Duration) *WriterLease {
	return &WriterLease{
		rdb:       rdb,
		ttl:       ttl,
		token:     uuid.New().String(),
		releaseSc: redis.NewScript(releaseLua),
		refreshSc: redis.NewScript(refreshLua),
	}
}

// Acquire takes the lease and starts refreshing it. The returned context is
// cancelled when the lease is lost or released.
func (l *WriterLease) Acquire(ctx context.Context) (context.Context, error) {
	ok, err := l.rdb.SetNX(ctx, writerLeaseKey, l.token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire writer lease: %w", err)
	}
	if !ok {
		return nil, ErrLeaseHeld
	}

	leaseCtx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.cancel = cancel
	l.done = make(chan struct{})
	l.mu.Unlock()

	go l.refreshLoop(leaseCtx, cancel)

	log.WithFields(log.Fields{
		"ttl":   l.ttl,
		"token": l.token,
	}).Info("Acquired writer lease")
	return leaseCtx, nil
}

func (l *WriterLease) refreshLoop(ctx context.Context, cancel context.CancelFunc) {
	defer close(l.done)
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := l.refreshSc.Run(ctx, l.rdb, []string{writerLeaseKey}, l.token, l.ttl.Milliseconds()).Int()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).Warn("Failed to refresh writer lease")
				continue
			}
			if n == 0 {
				log.Error("Writer lease lost")
				cancel()
				return
			}
		}
	}
}

// Release stops refreshing and deletes the lease if still owned
func (l *WriterLease) Release() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done

	ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := l.releaseSc.Run(ctx, l.rdb, []string{writerLeaseKey}, l.token).Err(); err != nil {
		log.WithError(err).Warn("Failed to release writer lease")
		return
	}
	log.Info("Released writer lease")
}
