// Package config はスタジオの実行時設定を保持します。
// 既定値の上に YAML ファイル、環境変数の順で重ね、後勝ちで確定します。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shouni/gemini-art-studio/pkg/domain"
)

// Config はスタジオ全体の設定です。
type Config struct {
	// ContentModel はパーツ付き規約（画像条件付き生成）のモデル名です。
	ContentModel string `yaml:"content_model"`
	// ImageModel はテキストのみ規約のモデル名です。
	ImageModel string `yaml:"image_model"`

	HistoryLimit int    `yaml:"history_limit"`
	HistoryKey   string `yaml:"history_key"`
	StorageDir   string `yaml:"storage_dir"`
	// StorageQuotaBytes は履歴1文書の書き込み上限です。Web Storage の
	// 5MB 制限に相当します。0以下で無制限です。
	StorageQuotaBytes int `yaml:"storage_quota_bytes"`

	DefaultAspectRatio string        `yaml:"default_aspect_ratio"`
	DownloadPrefix     string        `yaml:"download_prefix"`
	HTTPTimeout        time.Duration `yaml:"http_timeout"`
}

// LoadDefaults は c を既定値で埋めます。
func (c *Config) LoadDefaults() {
	c.ContentModel = "gemini-2.5-flash-image"
	c.ImageModel = "imagen-4.0-generate-001"
	c.HistoryLimit = 8
	c.HistoryKey = "imageGeneratorHistory"
	c.StorageDir = defaultStorageDir()
	c.StorageQuotaBytes = 5 * 1024 * 1024
	c.DefaultAspectRatio = domain.AspectSquare
	c.DownloadPrefix = "gemini-art"
	c.HTTPTimeout = 60 * time.Second
}

func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gemini-art-studio"
	}
	return filepath.Join(home, ".gemini-art-studio")
}

// Load は既定値→YAML→環境変数の順で Config を構築します。
// path が空の場合は YAML の段を飛ばします。
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := parseYAML(cfg, path); err != nil {
			return nil, err
		}
	}
	parseEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("設定ファイルの解析に失敗しました (%s): %w", path, err)
	}
	return nil
}

func parseEnv(cfg *Config) {
	if v := os.Getenv("ART_STUDIO_CONTENT_MODEL"); v != "" {
		cfg.ContentModel = v
	}
	if v := os.Getenv("ART_STUDIO_IMAGE_MODEL"); v != "" {
		cfg.ImageModel = v
	}
	if v := os.Getenv("ART_STUDIO_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistoryLimit = n
		}
	}
	if v := os.Getenv("ART_STUDIO_STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}
	if v := os.Getenv("ART_STUDIO_STORAGE_QUOTA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StorageQuotaBytes = n
		}
	}
	if v := os.Getenv("ART_STUDIO_ASPECT_RATIO"); v != "" {
		cfg.DefaultAspectRatio = v
	}
}

// Validate は設定値の整合性を検査します。
func (c *Config) Validate() error {
	if c.ContentModel == "" || c.ImageModel == "" {
		return fmt.Errorf("モデル名が設定されていません")
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history_limit は1以上が必要です: %d", c.HistoryLimit)
	}
	if !domain.ValidAspectRatio(c.DefaultAspectRatio) {
		return fmt.Errorf("不正なアスペクト比です: %s", c.DefaultAspectRatio)
	}
	if c.HistoryKey == "" {
		return fmt.Errorf("history_key が設定されていません")
	}
	return nil
}
