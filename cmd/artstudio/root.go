package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/shouni/gemini-art-studio/pkg/app"
	"github.com/shouni/gemini-art-studio/pkg/config"
	"github.com/shouni/gemini-art-studio/pkg/generator"
	"github.com/shouni/gemini-art-studio/pkg/history"
	"github.com/shouni/gemini-art-studio/pkg/source"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "artstudio",
	Short: "Gemini API で画像を生成・編集するスタジオ CLI",
	Long: `artstudio はプロンプトと参照画像から Gemini API で画像を生成し、
結果を容量制限付きのローカル履歴として保持するコマンドラインツールです。`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "設定ファイル (YAML) のパス")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力する")
}

// studio は1コマンド分の依存関係一式です。
type studio struct {
	cfg        *config.Config
	controller *app.Controller
	loader     *source.Loader
	log        *slog.Logger
}

// newStudio は設定の読み込みから Controller の組み立てまでを行います。
// 生成系コマンドの冒頭で1回だけ呼びます。
func newStudio(ctx context.Context) (*studio, error) {
	// .env は存在すれば読むだけで、なくてもエラーにしません。
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	apiKey, err := resolveAPIKey(os.Stderr)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
	}

	gen, err := generator.New(client.Models, cfg.ContentModel, cfg.ImageModel, log)
	if err != nil {
		return nil, err
	}

	kv, err := history.NewFileKV(cfg.StorageDir, cfg.StorageQuotaBytes)
	if err != nil {
		return nil, err
	}
	store, err := history.NewStore(kv, cfg.HistoryKey, cfg.HistoryLimit, log)
	if err != nil {
		return nil, err
	}

	loader, err := source.NewLoader(httpkit.New(cfg.HTTPTimeout), nil)
	if err != nil {
		return nil, err
	}
	loader.WithCache(source.NewMemoryCache(10 * time.Minute))

	controller, err := app.New(gen, store, app.Options{
		HistoryLimit:   cfg.HistoryLimit,
		AspectRatio:    cfg.DefaultAspectRatio,
		DownloadPrefix: cfg.DownloadPrefix,
	}, log)
	if err != nil {
		return nil, err
	}
	controller.LoadHistory()

	return &studio{cfg: cfg, controller: controller, loader: loader, log: log}, nil
}

// saveResult は現在の結果を出力ディレクトリへ書き出し、パスを報告します。
func (s *studio) saveResult(cmd *cobra.Command, outDir string) error {
	path, err := s.controller.Download(outDir)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
