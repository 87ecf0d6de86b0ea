package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Manager はセッションの生成と Store への保存を行います。
//
// Store が正です。メモリ上に保持するのは操作中 (Acquire から release まで) の
// セッションだけで、最後の release で手放します。同じセッションへの同時操作は
// 同じ *Session を共有するため、実行中ゲート (ErrBusy) が効きます。
type Manager struct {
	deps  Deps
	store Store
	newID func() string

	mu   sync.Mutex
	live map[string]*liveEntry
}

type liveEntry struct {
	sess    *Session
	refs    int
	deleted bool
}

// NewManager は Manager を生成します。store が nil の場合は期限なしの MemoryStore を使います。
func NewManager(deps Deps, store Store) (*Manager, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore(0)
	}
	return &Manager{
		deps:  deps,
		store: store,
		newID: func() string { return uuid.New().String() },
		live:  make(map[string]*liveEntry),
	}, nil
}

// Create は新しいセッションを作成して保存します。
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s, err := New(m.newID(), m.deps)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, s.Snapshot()); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "セッションを作成しました", "session", s.ID())
	return s, nil
}

// Acquire は操作対象のセッションを返します。操作が終わったら必ず release を呼びます。
// 操作中のものがなければ Store から復元するため、Store 側で期限切れになった
// セッションは ErrNotFound です。
func (m *Manager) Acquire(ctx context.Context, id string) (*Session, func(), error) {
	if s, release, ok, err := m.acquireLive(id); ok || err != nil {
		return s, release, err
	}

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	restored, err := Restore(*snap, m.deps)
	if err != nil {
		return nil, nil, fmt.Errorf("セッションの復元に失敗しました: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// 読み込み中に別の操作が先に復元していればそちらを使う
	if e, ok := m.live[id]; ok {
		if e.deleted {
			return nil, nil, ErrNotFound
		}
		e.refs++
		return e.sess, m.releaser(id, e), nil
	}
	e := &liveEntry{sess: restored, refs: 1}
	m.live[id] = e
	slog.DebugContext(ctx, "ストアからセッションを復元しました", "session", id, "step", restored.View().Step)
	return restored, m.releaser(id, e), nil
}

func (m *Manager) acquireLive(id string) (*Session, func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live[id]
	if !ok {
		return nil, nil, false, nil
	}
	if e.deleted {
		return nil, nil, false, ErrNotFound
	}
	e.refs++
	return e.sess, m.releaser(id, e), true, nil
}

func (m *Manager) releaser(id string, e *liveEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			e.refs--
			if e.refs <= 0 && m.live[id] == e {
				delete(m.live, id)
			}
		})
	}
}

// Save はセッションの現在の状態を Store に書き込みます。
// 操作中に削除されたセッションは書き戻しません。
func (m *Manager) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	e, ok := m.live[s.ID()]
	deleted := ok && e.sess == s && e.deleted
	m.mu.Unlock()
	if deleted {
		return ErrNotFound
	}

	if err := m.store.Save(ctx, s.Snapshot()); err != nil {
		slog.WarnContext(ctx, "セッションの保存に失敗しました", "session", s.ID(), "error", err)
		return err
	}
	return nil
}

// Delete はセッションを破棄します。操作中であれば、その操作の結果も保存されません。
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if e, ok := m.live[id]; ok {
		e.deleted = true
	}
	m.mu.Unlock()

	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// liveCount は操作中として保持しているセッション数を返します。
func (m *Manager) liveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
