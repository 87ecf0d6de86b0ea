package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/shouni/zen-logo-kit/pkg/input"
	"github.com/shouni/zen-logo-kit/pkg/session"
)

// referenceCacheTTL は URL で指定された参照画像を再利用する期間です。
const referenceCacheTTL = 10 * time.Minute

// DefaultRequestTimeout は分析と生成を含む 1 リクエストの上限時間です。
const DefaultRequestTimeout = 3 * time.Minute

// Server はロゴ生成ウィザードの HTTP API です。
type Server struct {
	sessions *session.Manager
	fetcher  *input.RemoteFetcher
	timeout  time.Duration
	now      func() time.Time
}

// Option は Server の設定を変更します。
type Option func(*Server)

// WithRequestTimeout はリクエストごとの上限時間を設定します。
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithFetcher は referenceUrl の取得に使う RemoteFetcher を差し替えます。
func WithFetcher(f *input.RemoteFetcher) Option {
	return func(s *Server) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithClock はダウンロードのファイル名に使う時刻の取得元を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New は Server を生成します。
func New(sessions *session.Manager, opts ...Option) (*Server, error) {
	if sessions == nil {
		return nil, errors.New("session manager required")
	}
	s := &Server{
		sessions: sessions,
		fetcher:  input.NewRemoteFetcher(input.WithCache(input.NewMemoryCache(), referenceCacheTTL)),
		timeout:  DefaultRequestTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Routes はルーティング済みのハンドラを返します。
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(logMiddleware, enableCORS)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/styles", handleStyles).Methods(http.MethodGet)

	api := r.PathPrefix("/api/sessions").Subrouter()
	api.HandleFunc("", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/submit", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/{id}/regenerate", s.handleRegenerate).Methods(http.MethodPost)
	api.HandleFunc("/{id}/refine", s.handleRefine).Methods(http.MethodPost)
	api.HandleFunc("/{id}/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/{id}/prompt", s.handlePrompt).Methods(http.MethodPut)
	api.HandleFunc("/{id}/select", s.handleSelect).Methods(http.MethodPost)
	api.HandleFunc("/{id}/download", s.handleDownload).Methods(http.MethodGet)

	// プリフライトは enableCORS が応答する
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	return r
}

// ListenAndServe は ctx が終了するまでサーバーを動かし、終了時にグレースフルに停止します。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("サーバーを起動します", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("サーバーを停止します")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// requestContext はクライアントの切断で生成結果が失われないよう、キャンセルを切り離した上限付きのコンテキストを返します。
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), s.timeout)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("レスポンスの書き込みに失敗しました", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusRecorder はアクセスログ用にステータスコードを記録します。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.InfoContext(r.Context(), "http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
