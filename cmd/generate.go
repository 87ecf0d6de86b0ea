package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/zen-logo-kit/pkg/domain"
	"github.com/shouni/zen-logo-kit/pkg/export"
	"github.com/shouni/zen-logo-kit/pkg/input"
	"github.com/shouni/zen-logo-kit/pkg/session"
)

type generateOptions struct {
	name      string
	slogan    string
	services  string
	style     string
	reference string
	out       string
	format    string
	refine    int
}

var genOpts generateOptions

// generateCmd は分析から初回生成までを 1 回実行し、選択中のロゴをファイルに保存するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "ロゴを 1 枚生成してファイルに保存するのだ。",
	Long: `店舗名・サービス・スタイルからブランド分析とプロンプト構築を行い、ロゴを生成するのだ。
--refine を指定すると、生成した画像を参照してその回数だけ磨き込むのだ。`,
	RunE: generateCommand,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genOpts.name, "name", "", "店舗名 (必須)")
	f.StringVar(&genOpts.slogan, "slogan", "", "スローガン")
	f.StringVar(&genOpts.services, "services", "", "提供サービス (必須)")
	f.StringVar(&genOpts.style, "style", domain.StyleNewChinese.Key(), "ブランディングスタイル (styles コマンドで一覧表示)")
	f.StringVar(&genOpts.reference, "reference", "", "参照画像のパスまたは URL (5MB まで)")
	f.StringVarP(&genOpts.out, "out", "o", "", "出力ファイル (省略時は zenlogo-<unixミリ秒>.png)")
	f.StringVar(&genOpts.format, "format", string(export.FormatPNG), "出力形式 (png または jpeg)")
	f.IntVar(&genOpts.refine, "refine", 0, "生成後に磨き込む回数")
	_ = generateCmd.MarkFlagRequired("name")
	_ = generateCmd.MarkFlagRequired("services")
}

func generateCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	in, err := genOpts.userInput(ctx)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(genOpts.format)
	if err != nil {
		return err
	}
	if genOpts.refine < 0 {
		return fmt.Errorf("--refine は 0 以上を指定してほしいのだ")
	}

	deps, err := newDeps(cfg, flags.apiKey)
	if err != nil {
		return err
	}
	sess, err := session.New("cli", deps)
	if err != nil {
		return err
	}

	if err := sess.Submit(ctx, in); err != nil {
		return err
	}
	// 磨き込みに失敗しても、それまでに生成できたロゴは保存するのだ
	for i := 0; i < genOpts.refine; i++ {
		if err := sess.Refine(ctx); err != nil {
			slog.WarnContext(ctx, "磨き込みに失敗したので、ここまでのロゴを保存するのだ",
				"attempt", i+1, "of", genOpts.refine, "error", err)
			break
		}
	}

	view := sess.View()
	data, err := export.Selected(view, format)
	if err != nil {
		return err
	}

	out := genOpts.out
	if out == "" {
		out = export.FileNameFor(time.Now(), format)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("出力ディレクトリを作成できないのだ: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("ロゴの保存に失敗したのだ: %w", err)
	}

	slog.InfoContext(ctx, "ロゴを保存したのだ", "path", out, "logos", len(view.Logos))
	if view.Analysis != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "English name: %s\nSymbols: %s\nPalette: %s\n",
			view.Analysis.EnglishTranslation,
			strings.Join(view.Analysis.VisualSymbolsEnglish, ", "),
			view.Analysis.ColorPaletteEnglish)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func (o generateOptions) userInput(ctx context.Context) (domain.UserInput, error) {
	style, err := domain.ParseBrandingStyle(o.style)
	if err != nil {
		return domain.UserInput{}, err
	}
	in := domain.UserInput{
		StoreName: o.name,
		Slogan:    o.slogan,
		Services:  o.services,
		Style:     style,
	}
	if o.reference != "" {
		var (
			ref *domain.ReferenceImage
			err error
		)
		if strings.HasPrefix(o.reference, "http://") || strings.HasPrefix(o.reference, "https://") {
			ref, err = input.NewRemoteFetcher().Fetch(ctx, o.reference)
		} else {
			ref, err = input.LoadReferenceFile(o.reference)
		}
		if err != nil {
			return domain.UserInput{}, err
		}
		in.Reference = ref
	}
	return in, in.Validate()
}
