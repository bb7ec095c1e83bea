package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-art-studio/pkg/domain"
	"github.com/shouni/gemini-art-studio/pkg/imgutil"
)

// Store は生成履歴の境界付き永続化を担当します。
// 保存も読み込みも呼び出し側へエラーを出さない、ベストエフォート契約です。
type Store struct {
	kv    KV
	key   string
	limit int
	log   *slog.Logger
}

// NewStore は依存関係を注入して Store を初期化します。
// limit は保持件数の上限です（最新優先）。
func NewStore(kv KV, key string, limit int, log *slog.Logger) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv (KV) is required")
	}
	if key == "" {
		return nil, fmt.Errorf("storage key is required")
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be >= 1, got %d", limit)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{kv: kv, key: key, limit: limit, log: log}, nil
}

// Save は履歴の先頭 limit 件を1つのJSON文書として永続化します。
//
// 容量超過で書き込みが拒否された場合は、保持中の最古の1件を落として
// 再試行を繰り返します。競合ではなくサイズ制約なので待ち時間は入れません。
// 1件すら収まらない場合は保存値を丸ごと消して空の状態にします。
// いずれの結果でも呼び出し側へはエラーを返しません。
func (s *Store) Save(history []domain.GeneratedImage) {
	if len(history) > s.limit {
		history = history[:s.limit]
	}

	stored := make([]domain.StoredImage, 0, len(history))
	for _, img := range history {
		stored = append(stored, domain.StoredImage{
			ID:       img.ID,
			Prompt:   img.Prompt,
			Base64:   imgutil.BlobToBase64(img.Data),
			MimeType: img.MimeType,
		})
	}

	for {
		doc, err := json.Marshal(stored)
		if err != nil {
			s.log.Error("履歴のシリアライズに失敗しました", "error", err)
			return
		}

		err = s.kv.Set(s.key, doc)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			s.log.Error("履歴の書き込みに失敗しました", "error", err)
			return
		}

		if len(stored) <= 1 {
			// 1件も収まらないので丸ごと消して空状態にする
			s.log.Warn("容量不足のため履歴を全消去します", "quota_error", err)
			if rerr := s.kv.Remove(s.key); rerr != nil {
				s.log.Error("履歴の消去に失敗しました", "error", rerr)
			}
			return
		}

		// 最古（末尾）を落として再試行する
		stored = stored[:len(stored)-1]
		s.log.Info("容量不足のため最古の履歴を退避しました", "remaining", len(stored))
	}
}

// Load は保存済みの履歴を復元します。エラーは返しません。
//
// 文書自体が解析できない場合は破損とみなして保存値を破棄し（次回以降の
// 保存で自己修復される）、空の履歴を返します。個別エントリの base64 が
// 復号できない場合はそのエントリだけを黙って捨て、残りは維持します。
func (s *Store) Load() []domain.GeneratedImage {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.log.Error("履歴の読み込みに失敗しました", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var stored []domain.StoredImage
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.log.Warn("履歴文書が破損していたため破棄します", "error", err)
		if rerr := s.kv.Remove(s.key); rerr != nil {
			s.log.Error("破損した履歴の破棄に失敗しました", "error", rerr)
		}
		return nil
	}

	history := make([]domain.GeneratedImage, 0, len(stored))
	for _, item := range stored {
		data, err := imgutil.Base64ToBlob(item.Base64)
		if err != nil {
			s.log.Warn("復号できない履歴エントリを除外しました", "id", item.ID, "error", err)
			continue
		}
		history = append(history, domain.GeneratedImage{
			ID:       item.ID,
			Prompt:   item.Prompt,
			Data:     data,
			MimeType: item.MimeType,
			URL:      imgutil.DataURL(item.MimeType, data),
		})
	}
	return history
}
