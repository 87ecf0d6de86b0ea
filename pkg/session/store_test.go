package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/zen-logo-kit/pkg/domain"
)

// fakeRedis は Get / Set / Del のみをメモリ上で実装するのだ。
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func completedSnapshot(t *testing.T) Snapshot {
	t.Helper()
	ref := &domain.ReferenceImage{Data: []byte("user-ref"), MIMEType: "image/jpeg"}
	s, _ := completedSession(t, ref)
	require.NoError(t, s.Regenerate(context.Background()))
	return s.Snapshot()
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	snap := completedSnapshot(t)
	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Logos, got.Logos)
	assert.Equal(t, 1, got.Selected)

	require.NoError(t, store.Delete(ctx, snap.ID))
	_, err = store.Load(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, Snapshot{ID: "old", Step: domain.StepCollectingInput}))
	now = now.Add(30 * time.Second)
	require.NoError(t, store.Save(ctx, Snapshot{ID: "young", Step: domain.StepCollectingInput}))

	now = now.Add(45 * time.Second)
	_, err := store.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Load(ctx, "young")
	require.NoError(t, err)

	// 保存のたびに期限切れを掃除する
	require.NoError(t, store.Save(ctx, Snapshot{ID: "old2", Step: domain.StepCollectingInput}))
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, Snapshot{ID: "new", Step: domain.StepCollectingInput}))
	assert.Len(t, store.data, 1)
	assert.Contains(t, store.data, "new")
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	_, err := NewRedisStore(nil, 0)
	require.Error(t, err)

	rdb := newFakeRedis()
	store, err := NewRedisStore(rdb, time.Hour)
	require.NoError(t, err)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	snap := completedSnapshot(t)
	require.NoError(t, store.Save(ctx, snap))
	assert.Contains(t, rdb.data, "zenlogo:session:"+snap.ID)
	assert.Equal(t, time.Hour, rdb.ttls["zenlogo:session:"+snap.ID])

	got, err := store.Load(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Step, got.Step)
	assert.Equal(t, snap.Logos, got.Logos)
	assert.Equal(t, snap.Prompt, got.Prompt)
	require.NotNil(t, got.Input)
	require.NotNil(t, got.Input.Reference)
	assert.Equal(t, []byte("user-ref"), got.Input.Reference.Data)

	require.NoError(t, store.Delete(ctx, snap.ID))
	_, err = store.Load(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_BrokenPayload(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["zenlogo:session:bad"] = "{not json"
	store, err := NewRedisStore(rdb, 0)
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestRestore(t *testing.T) {
	deps := Deps{Analyzer: &mockAnalyzer{}, Generator: &mockGenerator{}}

	t.Run("complete はそのまま復元され、操作を続けられる", func(t *testing.T) {
		snap := completedSnapshot(t)
		s, err := Restore(snap, deps)
		require.NoError(t, err)

		v := s.View()
		assert.Equal(t, domain.StepComplete, v.Step)
		assert.Len(t, v.Logos, 2)
		assert.Equal(t, 1, v.SelectedIndex)

		require.NoError(t, s.Regenerate(context.Background()))
		assert.Len(t, s.View().Logos, 3)
	})

	t.Run("生成中のまま保存された状態は complete に戻す", func(t *testing.T) {
		snap := completedSnapshot(t)
		snap.Step = domain.StepGenerating
		s, err := Restore(snap, deps)
		require.NoError(t, err)
		assert.Equal(t, domain.StepComplete, s.View().Step)
	})

	t.Run("初回生成中なら入力待ちに戻す", func(t *testing.T) {
		for _, step := range []domain.Step{domain.StepAnalyzing, domain.StepGenerating} {
			s, err := Restore(Snapshot{ID: "x", Step: step}, deps)
			require.NoError(t, err)
			assert.Equal(t, domain.StepCollectingInput, s.View().Step)
		}
	})

	t.Run("不正なスナップショットは拒否する", func(t *testing.T) {
		snap := completedSnapshot(t)
		snap.Selected = 5
		_, err := Restore(snap, deps)
		assert.Error(t, err)

		_, err = Restore(Snapshot{ID: "x", Step: domain.StepComplete}, deps)
		assert.Error(t, err)

		_, err = Restore(Snapshot{ID: "x", Step: "unknown"}, deps)
		assert.Error(t, err)
	})
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	deps := Deps{Analyzer: &mockAnalyzer{}, Generator: &mockGenerator{}}

	_, err := NewManager(Deps{}, nil)
	require.Error(t, err)

	store := NewMemoryStore(0)
	m, err := NewManager(deps, store)
	require.NoError(t, err)

	created, err := m.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID())
	assert.Equal(t, 0, m.liveCount())

	s, release, err := m.Acquire(ctx, created.ID())
	require.NoError(t, err)
	require.NoError(t, s.Submit(ctx, sampleInput(nil)))
	require.NoError(t, m.Save(ctx, s))
	release()
	release() // 2 回目は何もしない
	assert.Equal(t, 0, m.liveCount())

	// 別プロセスを想定し、同じストアを共有する新しい Manager から復元する
	m2, err := NewManager(deps, store)
	require.NoError(t, err)
	restored, release2, err := m2.Acquire(ctx, s.ID())
	require.NoError(t, err)
	defer release2()
	assert.NotSame(t, s, restored)
	assert.Equal(t, s.View().Logos, restored.View().Logos)

	require.NoError(t, m.Delete(ctx, s.ID()))
	_, _, err = m.Acquire(ctx, s.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = m.Acquire(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_SharesSessionWhileInUse(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(Deps{Analyzer: &mockAnalyzer{}, Generator: &mockGenerator{}}, nil)
	require.NoError(t, err)
	created, err := m.Create(ctx)
	require.NoError(t, err)

	a, releaseA, err := m.Acquire(ctx, created.ID())
	require.NoError(t, err)
	b, releaseB, err := m.Acquire(ctx, created.ID())
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, m.liveCount())

	releaseA()
	assert.Equal(t, 1, m.liveCount())
	releaseB()
	assert.Equal(t, 0, m.liveCount())
}

func TestManager_StoreExpiryWins(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	store, err := NewRedisStore(rdb, time.Hour)
	require.NoError(t, err)
	m, err := NewManager(Deps{Analyzer: &mockAnalyzer{}, Generator: &mockGenerator{}}, store)
	require.NoError(t, err)

	created, err := m.Create(ctx)
	require.NoError(t, err)
	s, release, err := m.Acquire(ctx, created.ID())
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx, s))
	release()

	// Redis 側で TTL 切れになったのと同じ状態にする
	delete(rdb.data, "zenlogo:session:"+created.ID())

	_, _, err = m.Acquire(ctx, created.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.liveCount())
}

func TestManager_DeleteWhileInUse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	m, err := NewManager(Deps{Analyzer: &mockAnalyzer{}, Generator: &mockGenerator{}}, store)
	require.NoError(t, err)
	created, err := m.Create(ctx)
	require.NoError(t, err)

	s, release, err := m.Acquire(ctx, created.ID())
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, created.ID()))

	// 操作中に削除されたセッションは書き戻さない
	assert.ErrorIs(t, m.Save(ctx, s), ErrNotFound)
	_, _, err = m.Acquire(ctx, created.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	release()

	_, err = store.Load(ctx, created.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.liveCount())
}
