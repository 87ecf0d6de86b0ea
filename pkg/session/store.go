package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound はセッションが存在しない場合のエラーです。
var ErrNotFound = errors.New("session not found")

// Store はセッションのスナップショットを保存します。
type Store interface {
	Load(ctx context.Context, id string) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore はプロセス内にスナップショットを保持します。
// ttl が正の場合は最後の保存から ttl を過ぎたものを期限切れとし、保存のたびに掃除します。
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]memoryEntry
}

type memoryEntry struct {
	snap    Snapshot
	expires time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// NewMemoryStore は MemoryStore を生成します。ttl が 0 の場合は期限なしです。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, data: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.expired(m.now()) {
		delete(m.data, id)
		return nil, ErrNotFound
	}
	snap := e.snap
	return &snap, nil
}

func (m *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.data {
		if e.expired(now) {
			delete(m.data, id)
		}
	}
	e := memoryEntry{snap: snap}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}
	m.data[snap.ID] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

const redisKeyPrefix = "zenlogo:session:"

// RedisStore はスナップショットを JSON として Redis に保存します。
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisStore は RedisStore を生成します。ttl が 0 の場合は期限なしです。
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) (*RedisStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("rdb (redis.Cmdable) is required")
	}
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (r *RedisStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	raw, err := r.rdb.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisからセッションを読み込めませんでした: %w", err)
	}
	return decodeSnapshot(raw)
}

func (r *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, redisKey(snap.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redisへのセッション保存に失敗しました: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, redisKey(id)).Err()
}

func encodeSnapshot(snap Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	return raw, nil
}

func decodeSnapshot(raw []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &snap, nil
}
