package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/zen-logo-kit/pkg/domain"
)

const (
	// fetchTimeout は参照画像 1 枚のダウンロードにかける上限時間です。
	fetchTimeout = 30 * time.Second
	// fetchMaxRetries は 5xx や一時的なネットワークエラーの再試行回数です。
	fetchMaxRetries = 2
)

// ErrUnsafeURL は SSRF の可能性がある URL を拒否した場合のエラーです。
var ErrUnsafeURL = errors.New("reference URL is not allowed")

// ImageCacher は取得済み参照画像のキャッシュ操作を抽象化するインターフェースです。
type ImageCacher interface {
	Get(key string) (*domain.ReferenceImage, bool)
	Set(key string, ref *domain.ReferenceImage, ttl time.Duration)
}

// RemoteFetcher は URL で指定された参照画像をダウンロードします。
// 既定の httpkit クライアントは接続時にも宛先を検証するため、リダイレクトや
// DNS Rebinding でプライベートアドレスへ到達することはできません。
type RemoteFetcher struct {
	httpClient   httpkit.ClientInterface
	cache        ImageCacher
	cacheTTL     time.Duration
	allowPrivate bool
}

// FetcherOption は RemoteFetcher の設定を変更します。
type FetcherOption func(*RemoteFetcher)

// WithCache は取得結果をキャッシュします。
func WithCache(c ImageCacher, ttl time.Duration) FetcherOption {
	return func(f *RemoteFetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithHTTPClient は HTTP クライアントを差し替えます。
func WithHTTPClient(c httpkit.ClientInterface) FetcherOption {
	return func(f *RemoteFetcher) { f.httpClient = c }
}

// WithPrivateNetworks はプライベートアドレスへのアクセスを許可します。ローカル検証用です。
func WithPrivateNetworks() FetcherOption {
	return func(f *RemoteFetcher) { f.allowPrivate = true }
}

// NewRemoteFetcher は RemoteFetcher を生成します。
func NewRemoteFetcher(opts ...FetcherOption) *RemoteFetcher {
	f := &RemoteFetcher{}
	for _, opt := range opts {
		opt(f)
	}
	if f.httpClient == nil {
		f.httpClient = httpkit.New(fetchTimeout,
			httpkit.WithSkipNetworkValidation(f.allowPrivate),
			httpkit.WithMaxRetries(fetchMaxRetries),
		)
	}
	return f
}

// Fetch は URL から画像を取得し、FromBytes と同じ検証を行います。
func (f *RemoteFetcher) Fetch(ctx context.Context, rawURL string) (*domain.ReferenceImage, error) {
	if f.cache != nil {
		if ref, ok := f.cache.Get(rawURL); ok {
			return ref, nil
		}
	}

	if !f.allowPrivate {
		if ok, err := f.httpClient.IsSafeURL(rawURL); !ok {
			slog.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました", "url", rawURL, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrUnsafeURL, err)
		}
	}

	data, err := f.httpClient.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("参照画像のダウンロードに失敗しました: %w", err)
	}
	ref, err := FromBytes(data)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		f.cache.Set(rawURL, ref, f.cacheTTL)
	}
	return ref, nil
}

// MemoryCache は有効期限付きのプロセス内キャッシュです。
// 書き込みのたびに期限切れのエントリを掃除します。
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	ref     *domain.ReferenceImage
	expires time.Time
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *MemoryCache) Get(key string) (*domain.ReferenceImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.ref, true
}

func (c *MemoryCache) Set(key string, ref *domain.ReferenceImage, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	e := cacheEntry{ref: ref}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	c.entries[key] = e
}

// Len は保持しているエントリ数を返します。
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
