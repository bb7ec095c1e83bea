// Package imgutil は画像バイナリの変換ユーティリティを提供します。
// base64 との相互変換は保存と上流 API ペイロードの両方で使われるため、
// 往復でバイト単位に一致することを保証します。
package imgutil

import (
	"encoding/base64"
	"fmt"
)

// BlobToBase64 は画像バイナリを base64 テキストへ変換します。
func BlobToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Base64ToBlob は base64 テキストを画像バイナリへ復元します。
func Base64ToBlob(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("base64デコード失敗: %w", err)
	}
	return data, nil
}

// DataURL は表示用の data URL を組み立てます。
// ブラウザの ObjectURL に相当する、プロセスローカルで有効な参照です。
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + BlobToBase64(data)
}
