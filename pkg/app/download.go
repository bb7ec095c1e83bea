package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Download は現在の結果をファイルへ書き出し、そのパスを返します。
// ファイル名はタイムスタンプから決定的に `<prefix>-<epoch-millis>.<ext>` です。
func (c *Controller) Download(dir string) (string, error) {
	c.mu.Lock()
	cur := c.state.GeneratedImage
	c.mu.Unlock()
	if cur == nil {
		return "", errors.New(msgNoResult)
	}

	name := fmt.Sprintf("%s-%d%s", c.prefix, time.Now().UnixMilli(), extensionFor(cur.MimeType))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, cur.Data, 0o644); err != nil {
		return "", fmt.Errorf("画像の書き出しに失敗しました: %w", err)
	}
	return path, nil
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
