package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-art-studio/pkg/config"
	"github.com/shouni/gemini-art-studio/pkg/domain"
	"github.com/shouni/gemini-art-studio/pkg/history"
)

// newHistoryStore は履歴操作に必要な最小限の依存だけを組み立てます。
// API キーや Gemini クライアントは要求しません。
func newHistoryStore() (*config.Config, *history.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	kv, err := history.NewFileKV(cfg.StorageDir, cfg.StorageQuotaBytes)
	if err != nil {
		return nil, nil, err
	}
	store, err := history.NewStore(kv, cfg.HistoryKey, cfg.HistoryLimit, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "保存済みの生成履歴を操作する",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "履歴を新しい順に一覧する",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := newHistoryStore()
		if err != nil {
			return err
		}

		items := store.Load()
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "履歴はまだありません。")
			return nil
		}
		for _, img := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d bytes\t%s\n",
				img.ID, img.MimeType, len(img.Data), img.Prompt)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "履歴の1件の詳細を表示する",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := newHistoryStore()
		if err != nil {
			return err
		}

		for _, img := range store.Load() {
			if img.ID != args[0] {
				continue
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", img.ID)
			fmt.Fprintf(out, "Prompt:   %s\n", img.Prompt)
			fmt.Fprintf(out, "MIME:     %s\n", img.MimeType)
			fmt.Fprintf(out, "Size:     %d bytes\n", len(img.Data))
			return nil
		}
		return fmt.Errorf("履歴に見つかりません: %s", args[0])
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "履歴の1件をファイルへ書き出す",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := newHistoryStore()
		if err != nil {
			return err
		}

		var target *domain.GeneratedImage
		for _, img := range store.Load() {
			if img.ID == args[0] {
				target = &img
				break
			}
		}
		if target == nil {
			return fmt.Errorf("履歴に見つかりません: %s", args[0])
		}

		outDir, _ := cmd.Flags().GetString("out")
		name := fmt.Sprintf("%s-%d%s", cfg.DownloadPrefix, time.Now().UnixMilli(), extensionFor(target.MimeType))
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, target.Data, 0o644); err != nil {
			return fmt.Errorf("画像の書き出しに失敗しました: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "履歴から1件を削除する",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := newHistoryStore()
		if err != nil {
			return err
		}

		items := store.Load()
		remaining := make([]domain.GeneratedImage, 0, len(items))
		for _, img := range items {
			if img.ID != args[0] {
				remaining = append(remaining, img)
			}
		}
		if len(remaining) == len(items) {
			return fmt.Errorf("履歴に見つかりません: %s", args[0])
		}
		store.Save(remaining)
		fmt.Fprintf(cmd.OutOrStdout(), "削除しました: %s\n", args[0])
		return nil
	},
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

func init() {
	historyExportCmd.Flags().StringP("out", "o", ".", "結果を書き出すディレクトリ")
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}
