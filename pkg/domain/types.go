package domain

import (
	"strconv"
	"time"
)

// Mode はアプリのトップレベル操作種別です。
type Mode string

const (
	// ModeCreate はテキスト（＋任意の参照画像）から新規画像を生成するモードです。
	ModeCreate Mode = "create"
	// ModeEdit は既存画像を変換するモードです。先頭の参照画像が必須になります。
	ModeEdit Mode = "edit"
)

// 上流サービスが受け付けるアスペクト比です。
const (
	AspectSquare    = "1:1"
	AspectPortrait  = "9:16"
	AspectLandscape = "16:9"
)

// ValidAspectRatio は上流に渡せるアスペクト比かどうかを判定します。
func ValidAspectRatio(ratio string) bool {
	switch ratio {
	case AspectSquare, AspectPortrait, AspectLandscape:
		return true
	}
	return false
}

// ImageFile はユーザーが選択した送信前の参照画像です。
// ファイル選択時に生成され、差し替えやモード変更で破棄される一時データです。
type ImageFile struct {
	Name       string
	Data       []byte
	MimeType   string
	PreviewURL string // 表示専用の参照。ネットワーク状態に依存せずローカルで有効
}

// GeneratedImage は完了した生成結果です。生成後は不変として扱います。
type GeneratedImage struct {
	ID       string
	URL      string // data URL 形式の表示用参照
	Data     []byte
	MimeType string
	Prompt   string
}

// StoredImage は GeneratedImage の永続化用の射影です。
// バイナリは base64 テキストとして保持し、往復でバイト単位に一致する必要があります。
type StoredImage struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
}

// NewImageID は時刻由来の識別子を発行します。
// 履歴の並びは前置で管理するため、単調性はミリ秒精度で十分です。
func NewImageID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
