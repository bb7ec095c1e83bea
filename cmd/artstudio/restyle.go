package main

import (
	"github.com/spf13/cobra"

	"github.com/shouni/gemini-art-studio/pkg/app"
	"github.com/shouni/gemini-art-studio/pkg/domain"
	"github.com/shouni/gemini-art-studio/pkg/prompt"
)

var restyleCmd = &cobra.Command{
	Use:   "restyle <image> <style>",
	Short: "被写体を保ったまま画像のスタイルだけを変換する",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newStudio(ctx)
		if err != nil {
			return err
		}

		outDir, _ := cmd.Flags().GetString("out")

		c := s.controller
		c.SetMode(domain.ModeEdit)
		c.SetEditFn(prompt.FnStyle)
		c.SetPrompt(app.StylePrompt(args[1]))

		img, err := s.loader.Load(ctx, args[0])
		if err != nil {
			return err
		}
		c.SetImage1(img)

		if err := c.Generate(ctx); err != nil {
			return err
		}
		return s.saveResult(cmd, outDir)
	},
}

func init() {
	restyleCmd.Flags().StringP("out", "o", ".", "結果を書き出すディレクトリ")
	rootCmd.AddCommand(restyleCmd)
}
