package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shouni/zen-logo-kit/internal/config"
)

// globalFlags は全サブコマンド共通のフラグなのだ。
type globalFlags struct {
	envFile string
	apiKey  string
}

var (
	flags globalFlags
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "zenlogo",
	Short: "スパ・マッサージ店のロゴを Gemini で生成するのだ。",
	Long: `店舗名とサービス内容からブランド分析を行い、プロンプトを組み立ててロゴ画像を生成するのだ。
serve で HTTP API を起動し、generate で 1 枚だけ生成してファイルに保存できるのだ。`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", ".env ファイルのパス (省略時はカレントディレクトリの .env)")
	rootCmd.PersistentFlags().StringVar(&flags.apiKey, "api-key", "", "Gemini API キー。環境変数より優先されるのだ")

	rootCmd.AddCommand(serveCmd, generateCmd, stylesCmd)
}

// setup は設定を読み込み、ログレベルを反映するのだ。
func setup(cmd *cobra.Command, _ []string) error {
	var files []string
	if flags.envFile != "" {
		files = append(files, flags.envFile)
	}
	loaded, err := config.Load(files...)
	if err != nil {
		return err
	}
	cfg = loaded

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return nil
}

// Execute はシグナルで停止できるコンテキストでルートコマンドを実行するのだ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		stop()
		os.Exit(1)
	}
}
