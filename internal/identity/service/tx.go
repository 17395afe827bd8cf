package service

import (
	"context"
	"sync"
	"time"

	dErrors "castingbase/pkg/domain-errors"
)

// StoreTx provides a transactional boundary for identity mutations. The
// postgres implementation wraps a database transaction; the in-memory one
// serializes conflicting writes with sharded locks so the same linearizable
// semantics hold in tests.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Sharded mutexes keyed by a hash of the identity key under mutation.
// Operations on different identities proceed in parallel; two writers racing
// on the same identity serialize.
const numIdentityShards = 128

// defaultTxTimeout bounds how long an identity transaction may hold its lock.
const defaultTxTimeout = 5 * time.Second

type shardedMemoryTx struct {
	shards  [numIdentityShards]sync.Mutex
	timeout time.Duration
}

// NewMemoryTx returns a lock-based StoreTx for use with the in-memory store.
func NewMemoryTx() StoreTx {
	return &shardedMemoryTx{}
}

func (t *shardedMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

func (t *shardedMemoryTx) selectShard(ctx context.Context) int {
	if key, ok := ctx.Value(txIdentityKeyCtx).(string); ok && key != "" {
		return int(hashTxKey(key) % numIdentityShards)
	}
	return 0
}

// hashTxKey uses FNV-1a for shard distribution.
func hashTxKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

type txIdentityKey struct{}

var txIdentityKeyCtx = txIdentityKey{}

// WithTxKey tags the context with the identity key a transaction will
// mutate, steering lock-based StoreTx implementations onto one shard.
func WithTxKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, txIdentityKeyCtx, key)
}
