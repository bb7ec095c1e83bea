package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword はテスト時に端末入力を差し替えるための継ぎ目です。
var readPassword = term.ReadPassword

// resolveAPIKey は GEMINI_API_KEY 環境変数から API キーを取得します。
// 未設定のときは端末からエコーなしで読み取ります。
func resolveAPIKey(w io.Writer) (string, error) {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		return key, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}

	fmt.Fprint(w, "Gemini API キーを入力してください: ")
	key, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("API キーの読み取りに失敗しました: %w", err)
	}
	if len(key) == 0 {
		return "", fmt.Errorf("API キーが入力されませんでした")
	}
	return string(key), nil
}
