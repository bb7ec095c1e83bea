package generator

import "google.golang.org/genai"

// 上流応答の形は任意フィールドの有無でしか判別できないため、
// エラーマッピングの前に一度タグ付きの分類へ落とし込みます。
type outcomeTag int

const (
	outcomeEmpty outcomeTag = iota
	outcomeImage
	outcomeTextOnly
	outcomeBlocked
)

type outcome struct {
	tag      outcomeTag
	data     []byte
	mimeType string
	text     string
}

// classifyContentResponse はパーツ付き規約の応答を分類します。
// 最初の候補の中で画像を持つ最初のパーツを採用します。
func classifyContentResponse(resp *genai.GenerateContentResponse) outcome {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil &&
			resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
			return outcome{tag: outcomeBlocked}
		}
		return outcome{tag: outcomeEmpty}
	}

	candidate := resp.Candidates[0]

	var explanation string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return outcome{
					tag:      outcomeImage,
					data:     part.InlineData.Data,
					mimeType: part.InlineData.MIMEType,
				}
			}
			if explanation == "" && part.Text != "" {
				explanation = part.Text
			}
		}
	}

	switch candidate.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonImageSafety, genai.FinishReasonProhibitedContent:
		return outcome{tag: outcomeBlocked}
	}

	if explanation != "" {
		return outcome{tag: outcomeTextOnly, text: explanation}
	}
	return outcome{tag: outcomeEmpty}
}

// classifyImagesResponse はテキストのみ規約の応答を分類します。
func classifyImagesResponse(resp *genai.GenerateImagesResponse) outcome {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return outcome{tag: outcomeEmpty}
	}

	first := resp.GeneratedImages[0]
	if first.RAIFilteredReason != "" {
		return outcome{tag: outcomeBlocked}
	}
	if first.Image == nil || len(first.Image.ImageBytes) == 0 {
		return outcome{tag: outcomeEmpty}
	}

	return outcome{
		tag:      outcomeImage,
		data:     first.Image.ImageBytes,
		mimeType: first.Image.MIMEType,
	}
}
