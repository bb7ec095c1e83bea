// Package source はユーザー指定の参照（ローカルパス、http(s) URL、gs:// URI）を
// 送信前の参照画像 domain.ImageFile へ解決します。
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/gemini-art-studio/pkg/domain"
	"github.com/shouni/gemini-art-studio/pkg/imgutil"
)

const (
	// このサイズを超える参照画像はインライン送信前にJPEGへ再圧縮します。
	compressThresholdBytes = 1 << 20
	compressQuality        = 75
)

// Loader は参照画像の取得・検証・縮小を担当します。
type Loader struct {
	httpClient httpkit.ClientInterface
	reader     remoteio.InputReader // nil 許容（gs:// 非対応として動作）
	cache      Cacher               // nil 許容（キャッシュなしとして動作）
}

// NewLoader は依存関係を注入して Loader を初期化します。
func NewLoader(httpClient httpkit.ClientInterface, reader remoteio.InputReader) (*Loader, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &Loader{httpClient: httpClient, reader: reader}, nil
}

// WithCache はリモート参照のバイト列キャッシュを設定します。
func (l *Loader) WithCache(cache Cacher) *Loader {
	l.cache = cache
	return l
}

// Load は参照からバイト列を取得し、表示用プレビュー参照付きの ImageFile を返します。
// プレビューはネットワーク状態に依存せず、この時点でローカルに確定します。
func (l *Loader) Load(ctx context.Context, ref string) (*domain.ImageFile, error) {
	data, err := l.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("画像ではないデータが指定されました (MIME: %s): %s", mimeType, ref)
	}

	if len(data) > compressThresholdBytes {
		if compressed, err := imgutil.CompressToJPEG(data, compressQuality); err == nil && len(compressed) < len(data) {
			data = compressed
			mimeType = "image/jpeg"
		}
	}

	return &domain.ImageFile{
		Name:       filepath.Base(ref),
		Data:       data,
		MimeType:   mimeType,
		PreviewURL: imgutil.DataURL(mimeType, data),
	}, nil
}

func (l *Loader) fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "gs://"):
		if l.reader == nil {
			return nil, fmt.Errorf("gs:// 参照を読むリーダーが設定されていません: %s", ref)
		}
		return l.fetchRemote(ref, func() ([]byte, error) {
			rc, err := l.reader.Open(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("リモート参照の読み込みに失敗しました: %w", err)
			}
			defer rc.Close()
			return io.ReadAll(rc)
		})

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		if safe, err := IsSafeURL(ref); err != nil || !safe {
			return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
		}
		return l.fetchRemote(ref, func() ([]byte, error) {
			return l.httpClient.FetchBytes(ctx, ref)
		})
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("ファイルの読み込みに失敗しました: %w", err)
	}
	return data, nil
}

// fetchRemote はキャッシュを挟んでリモート参照を取得します。
func (l *Loader) fetchRemote(ref string, get func() ([]byte, error)) ([]byte, error) {
	if l.cache != nil {
		if data, ok := l.cache.Get(ref); ok {
			return data, nil
		}
	}
	data, err := get()
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		l.cache.Set(ref, data)
	}
	return data, nil
}
