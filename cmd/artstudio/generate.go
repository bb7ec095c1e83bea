package main

import (
	"github.com/spf13/cobra"

	"github.com/shouni/gemini-art-studio/pkg/domain"
	"github.com/shouni/gemini-art-studio/pkg/prompt"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "プロンプト（＋任意の参照画像）から新しい画像を生成する",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newStudio(ctx)
		if err != nil {
			return err
		}

		text, _ := cmd.Flags().GetString("prompt")
		fn, _ := cmd.Flags().GetString("function")
		aspect, _ := cmd.Flags().GetString("aspect")
		imageRef, _ := cmd.Flags().GetString("image")
		outDir, _ := cmd.Flags().GetString("out")

		c := s.controller
		c.SetMode(domain.ModeCreate)
		c.SetPrompt(text)
		c.SetCreateFn(fn)
		if aspect != "" {
			c.SetAspectRatio(aspect)
		}
		if imageRef != "" {
			img, err := s.loader.Load(ctx, imageRef)
			if err != nil {
				return err
			}
			c.SetImage1(img)
		}

		if err := c.Generate(ctx); err != nil {
			return err
		}
		return s.saveResult(cmd, outDir)
	},
}

func init() {
	generateCmd.Flags().StringP("prompt", "p", "", "生成したい内容の説明")
	generateCmd.Flags().StringP("function", "f", prompt.FnFree, "生成機能 (free / sticker / text / comic / 3d-mascot / thumbnail)")
	generateCmd.Flags().StringP("aspect", "a", "", "出力アスペクト比 (1:1 / 9:16 / 16:9)")
	generateCmd.Flags().String("image", "", "参照画像 (ローカルパス / http(s) / gs://)")
	generateCmd.Flags().StringP("out", "o", ".", "結果を書き出すディレクトリ")
	rootCmd.AddCommand(generateCmd)
}
