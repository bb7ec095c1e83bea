package generator

import (
	"errors"
	"strings"

	"google.golang.org/genai"
)

// Kind は生成失敗の分類です。呼び出し側はこの分類に応じて
// ユーザーへの案内（キー再設定・待機・入力変更・再送）を変えます。
type Kind int

const (
	// KindNetwork は通信断や未知の失敗です。そのまま再送して構いません。
	KindNetwork Kind = iota
	// KindAuth は認証情報の欠落・拒否です。キーを設定し直すまで回復しません。
	KindAuth
	// KindQuota は利用枠の超過です。入力ではなく時間経過で回復します。
	KindQuota
	// KindSafety はセーフティフィルターによるブロックです。再送では回復せず、
	// プロンプトか入力画像の変更が必要です。
	KindSafety
	// KindEmptyResponse はモデルが利用可能な画像を返さなかった状態です。
	KindEmptyResponse
)

// Error は上流由来の失敗を安定したユーザー向けメッセージへ正規化した型です。
// 生のトランスポートエラーは cause に包んで保持し、呼び出し側へは出しません。
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// ユーザー向けの安定メッセージです。
const (
	msgAuth    = "APIキーの認証に失敗しました。キーを設定し直してください。"
	msgQuota   = "利用枠の上限に達しました。しばらく待ってから再試行してください。"
	msgSafety  = "このリクエストはセーフティフィルターによりブロックされました。プロンプトや画像を変更してください。"
	msgEmpty   = "画像が返されませんでした。プロンプトを変えて再試行してください。"
	msgNetwork = "画像サーバーとの通信に失敗しました。接続を確認して再試行してください。"
)

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// classifyTransportError は SDK から返ったエラーを Kind 付きの Error に写像します。
func classifyTransportError(err error) *Error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return newError(KindAuth, msgAuth, err)
		case 429:
			return newError(KindQuota, msgQuota, err)
		}

		lower := strings.ToLower(apiErr.Message)
		switch {
		case strings.Contains(lower, "api key"):
			return newError(KindAuth, msgAuth, err)
		case strings.Contains(lower, "quota"):
			return newError(KindQuota, msgQuota, err)
		case strings.Contains(lower, "safety"), strings.Contains(lower, "blocked"):
			return newError(KindSafety, msgSafety, err)
		}
	}

	return newError(KindNetwork, msgNetwork, err)
}
