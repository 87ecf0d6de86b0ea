package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shouni/zen-logo-kit/pkg/domain"
	"github.com/shouni/zen-logo-kit/pkg/prompt"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "選択できるブランディングスタイルを一覧表示するのだ。",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, st := range domain.AllStyles() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", st.Key(), st, prompt.StyleDescriptions[st])
		}
		return w.Flush()
	},
}
