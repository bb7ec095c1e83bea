package main

import (
	"github.com/spf13/cobra"

	"github.com/shouni/gemini-art-studio/pkg/domain"
	"github.com/shouni/gemini-art-studio/pkg/prompt"
)

var editCmd = &cobra.Command{
	Use:   "edit <image>",
	Short: "既存の画像を指示文に従って編集する",
	Long: `edit は指定した画像を Gemini API へ渡し、指示文に従って編集した
新しい画像を生成します。compose 機能では2枚目の画像も指定できます。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newStudio(ctx)
		if err != nil {
			return err
		}

		text, _ := cmd.Flags().GetString("prompt")
		fn, _ := cmd.Flags().GetString("function")
		aspect, _ := cmd.Flags().GetString("aspect")
		secondRef, _ := cmd.Flags().GetString("image2")
		outDir, _ := cmd.Flags().GetString("out")

		c := s.controller
		c.SetMode(domain.ModeEdit)
		c.SetPrompt(text)
		c.SetEditFn(fn)
		if aspect != "" {
			c.SetAspectRatio(aspect)
		}

		img, err := s.loader.Load(ctx, args[0])
		if err != nil {
			return err
		}
		c.SetImage1(img)

		if secondRef != "" {
			img2, err := s.loader.Load(ctx, secondRef)
			if err != nil {
				return err
			}
			c.SetImage2(img2)
		}

		if err := c.Generate(ctx); err != nil {
			return err
		}
		return s.saveResult(cmd, outDir)
	},
}

func init() {
	editCmd.Flags().StringP("prompt", "p", "", "編集内容の指示文")
	editCmd.Flags().StringP("function", "f", prompt.FnAddRemove, "編集機能 (add-remove / retouch / style / compose)")
	editCmd.Flags().StringP("aspect", "a", "", "出力アスペクト比 (1:1 / 9:16 / 16:9)")
	editCmd.Flags().String("image2", "", "compose 用の2枚目の画像")
	editCmd.Flags().StringP("out", "o", ".", "結果を書き出すディレクトリ")
	rootCmd.AddCommand(editCmd)
}
