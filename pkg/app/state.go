// Package app はフォーム入力・実行中フラグ・現在の結果・履歴を1つの
// 状態オブジェクトとして保持し、ミューテータ経由の遷移だけを許します。
// 表示層はこの状態のスナップショットから描画します。
package app

import "github.com/shouni/gemini-art-studio/pkg/domain"

// State は唯一の信頼できる状態です。
//
// 不変条件: IsLoading はリクエスト送出から確定までの間だけ true です。
// Error と GeneratedImage が同じ送信について同時に意味を持つことはなく、
// 新しい送信は送出前に前回の Error を消します。
type State struct {
	Prompt         string
	Mode           domain.Mode
	ActiveCreateFn string
	ActiveEditFn   string
	Image1         *domain.ImageFile
	Image2         *domain.ImageFile
	GeneratedImage *domain.GeneratedImage
	IsLoading      bool
	Error          string
	AspectRatio    string
	History        []domain.GeneratedImage // 最新が先頭、上限件数まで
}

// clone は履歴スライスを切り離したコピーを返します。
// 参照先の画像データ自体は不変として共有します。
func (s State) clone() State {
	out := s
	if s.History != nil {
		out.History = make([]domain.GeneratedImage, len(s.History))
		copy(out.History, s.History)
	}
	return out
}
