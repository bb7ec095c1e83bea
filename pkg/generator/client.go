// Package generator は生成画像サービスへの1回限りの呼び出しを担当します。
// モードと入力に応じて2つの呼び出し規約（パーツ付き generateContent と
// テキストのみの generateImages）を選択し、応答を {URL, バイナリ} か
// 分類済みの失敗へ正規化します。再試行はここでは行わず、常に呼び出し側へ
// 制御を返します。
package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/shouni/gemini-art-studio/pkg/domain"
	"github.com/shouni/gemini-art-studio/pkg/imgutil"
	"github.com/shouni/gemini-art-studio/pkg/prompt"
)

// GenerativeAPI は genai SDK の通信面を抽象化します。*genai.Models が満たします。
type GenerativeAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Request は1回の生成要求です。
type Request struct {
	Prompt      string // 合成前の自由入力
	Mode        domain.Mode
	CreateFn    string
	EditFn      string
	Image1      *domain.ImageFile
	Image2      *domain.ImageFile
	AspectRatio string
	Seed        *int32 // nil でランダム。パーツ付き規約でのみ有効
}

// Result は正常終了した生成の成果物です。
type Result struct {
	URL         string // data URL 形式の表示用参照
	Data        []byte
	MimeType    string
	FinalPrompt string // 実際に上流へ送った合成済みプロンプト
}

// Client は生成画像サービスのクライアントです。
type Client struct {
	api          GenerativeAPI
	contentModel string // パーツ付き規約のモデル
	imageModel   string // テキストのみ規約のモデル
	log          *slog.Logger
}

// New は依存関係を注入して Client を初期化します。
func New(api GenerativeAPI, contentModel, imageModel string, log *slog.Logger) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("api (GenerativeAPI) is required")
	}
	if contentModel == "" || imageModel == "" {
		return nil, fmt.Errorf("model names are required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{api: api, contentModel: contentModel, imageModel: imageModel, log: log}, nil
}

// Generate は1回だけ上流を呼び出し、成功か分類済みの失敗を返します。
//
// 規約の選択: edit モード、または create モードで先頭画像があれば
// パーツ付き規約。それ以外はテキストのみ規約です。
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	activeFn := req.CreateFn
	if req.Mode == domain.ModeEdit {
		activeFn = req.EditFn
	}
	fullPrompt := prompt.Compose(req.Prompt, activeFn, req.Mode)

	requestID := uuid.NewString()
	c.log.InfoContext(ctx, "画像生成リクエスト",
		"request_id", requestID,
		"mode", string(req.Mode),
		"function", activeFn,
		"aspect_ratio", req.AspectRatio,
		"with_image", req.Image1 != nil,
	)

	var (
		res *Result
		err error
	)
	if req.Mode == domain.ModeEdit || req.Image1 != nil {
		res, err = c.generateWithParts(ctx, fullPrompt, req)
	} else {
		res, err = c.generateFromText(ctx, fullPrompt, req)
	}
	if err != nil {
		c.log.WarnContext(ctx, "画像生成失敗", "request_id", requestID, "error", err)
		return nil, err
	}

	res.FinalPrompt = fullPrompt
	return res, nil
}

// generateWithParts はパーツ付き規約（画像0〜2枚＋テキスト1つ）で呼び出します。
func (c *Client) generateWithParts(ctx context.Context, fullPrompt string, req Request) (*Result, error) {
	var parts []*genai.Part
	for _, img := range []*domain.ImageFile{req.Image1, req.Image2} {
		if img == nil {
			continue
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: img.MimeType, Data: img.Data},
		})
	}
	// 上流は空でないテキストパーツを常に要求する
	parts = append(parts, &genai.Part{Text: fullPrompt})

	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: req.AspectRatio},
		Seed:        req.Seed,
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.api.GenerateContent(ctx, c.contentModel, contents, config)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return resultFromOutcome(classifyContentResponse(resp))
}

// generateFromText はテキストのみ規約で、要求アスペクト比の画像を1枚だけ要求します。
func (c *Client) generateFromText(ctx context.Context, fullPrompt string, req Request) (*Result, error) {
	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    req.AspectRatio,
	}

	resp, err := c.api.GenerateImages(ctx, c.imageModel, fullPrompt, config)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return resultFromOutcome(classifyImagesResponse(resp))
}

// resultFromOutcome はタグ付きの応答分類を Result かエラーへ確定させます。
func resultFromOutcome(out outcome) (*Result, error) {
	switch out.tag {
	case outcomeImage:
		mime := out.mimeType
		if mime == "" {
			mime = "image/png"
		}
		return &Result{
			URL:      imgutil.DataURL(mime, out.data),
			Data:     out.data,
			MimeType: mime,
		}, nil
	case outcomeBlocked:
		return nil, newError(KindSafety, msgSafety, nil)
	case outcomeTextOnly:
		// モデルがテキストで理由を説明してきた場合はそれをそのまま表示する
		return nil, newError(KindEmptyResponse, out.text, nil)
	default:
		return nil, newError(KindEmptyResponse, msgEmpty, nil)
	}
}
