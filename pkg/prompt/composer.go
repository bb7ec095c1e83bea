// Package prompt はUI上の意図（自由入力・機能・モード）を
// 上流へ送る最終的な指示文へ写像する純粋な合成ロジックです。
package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-art-studio/pkg/domain"
)

// モードごとの機能識別子です。
const (
	FnFree      = "free"
	FnSticker   = "sticker"
	FnLogo      = "text"
	FnComic     = "comic"
	FnMascot    = "3d-mascot"
	FnThumbnail = "thumbnail"

	FnAddRemove = "add-remove"
	FnRetouch   = "retouch"
	FnStyle     = "style"
	FnCompose   = "compose"
)

// templates は入力テキストを埋め込む機能別テンプレートです。
// 登録がない機能はトリム済みテキストをそのまま通します。
var templates = map[string]string{
	FnSticker:   "sticker of %s, die-cut, vector style, white background",
	FnLogo:      "minimalist logo of %s, white background, high resolution",
	FnComic:     "%s, comic book style illustration, vibrant",
	FnMascot:    "%s, 3D mascot, modern render, white background",
	FnThumbnail: "YouTube thumbnail about %s, dynamic composition, vibrant",
	FnCompose:   "Combine these images: %s",
}

// createDefaults は create モードで入力が空のときの既定プロンプトです。
var createDefaults = map[string]string{
	FnSticker:   "a high quality sticker, die-cut, white background, masterpiece",
	FnLogo:      "a minimalist vector logo design, professional, white background",
	FnComic:     "professional comic book art, vibrant colors, detailed",
	FnMascot:    "cute 3D character mascot, Pixar style, high quality render, white background",
	FnThumbnail: "eye-catching YouTube thumbnail background, high contrast, cinematic",
}

// editDefaults は edit モードで入力が空のときの既定プロンプトです。
var editDefaults = map[string]string{
	FnRetouch:   "Retouch and enhance this image, improve lighting and details",
	FnStyle:     "Apply a modern artistic style to this image",
	FnAddRemove: "Modify the details of this image realistically",
	FnCompose:   "Merge these two images together artistically",
}

// 未知の機能に対するフォールバックです。
const (
	genericCreateDefault = "professional digital art, high resolution, cinematic lighting"
	genericEditDefault   = "Enhance this image"
)

// Compose は (入力テキスト, 機能, モード) から最終プロンプトを決定します。
// 副作用を持たない全域関数で、同じ入力は常に同じ出力になります。
func Compose(text, fn string, mode domain.Mode) string {
	clean := strings.TrimSpace(text)

	if clean == "" {
		return defaultFor(fn, mode)
	}

	if tmpl, ok := templates[fn]; ok {
		return fmt.Sprintf(tmpl, clean)
	}
	return clean
}

func defaultFor(fn string, mode domain.Mode) string {
	if mode == domain.ModeCreate {
		if d, ok := createDefaults[fn]; ok {
			return d
		}
		return genericCreateDefault
	}
	if d, ok := editDefaults[fn]; ok {
		return d
	}
	return genericEditDefault
}
