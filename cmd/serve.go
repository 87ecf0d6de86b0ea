package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/zen-logo-kit/internal/server"
	"github.com/shouni/zen-logo-kit/pkg/session"
)

type serveOptions struct {
	addr    string
	timeout time.Duration
}

var serveOpts serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "ロゴ生成ウィザードの HTTP API を起動するのだ。",
	RunE:  serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "", "待ち受けアドレス (省略時は ZENLOGO_ADDR または :8080)")
	serveCmd.Flags().DurationVar(&serveOpts.timeout, "timeout", server.DefaultRequestTimeout, "分析と生成を含む 1 リクエストの上限時間")
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	addr := cfg.Addr
	if serveOpts.addr != "" {
		addr = serveOpts.addr
	}

	deps, err := newDeps(cfg, flags.apiKey)
	if err != nil {
		return err
	}
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	mgr, err := session.NewManager(deps, store)
	if err != nil {
		return err
	}
	srv, err := server.New(mgr, server.WithRequestTimeout(serveOpts.timeout))
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, addr)
}
