package app

import (
	"context"
	"errors"

	"github.com/shouni/gemini-art-studio/pkg/domain"
)

// ErrShareCancelled は共有操作がユーザーによって取り消されたことを表します。
// Sharer 実装はこのエラーを返すことで「失敗ではない中断」を伝えます。
var ErrShareCancelled = errors.New("share cancelled by user")

// Sharer はホスト環境の共有機構です。対応していない環境では nil を注入します。
type Sharer interface {
	Share(ctx context.Context, title, text string, image domain.GeneratedImage) error
}

// Share は現在の結果をホストの共有機構へ渡します。
// 共有非対応の環境では何もせず成功します。ユーザーによる取り消しも
// エラーとしては扱いません。
func (c *Controller) Share(ctx context.Context) error {
	if c.sharer == nil {
		return nil
	}

	c.mu.Lock()
	cur := c.state.GeneratedImage
	c.mu.Unlock()
	if cur == nil {
		return errors.New(msgNoResult)
	}

	err := c.sharer.Share(ctx, "Gemini Art Studio", cur.Prompt, *cur)
	if errors.Is(err, ErrShareCancelled) {
		return nil
	}
	return err
}
