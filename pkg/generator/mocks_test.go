package generator

import (
	"context"

	"google.golang.org/genai"
)

// --- Mocks ---

type mockAPI struct {
	generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	generateImagesFunc  func(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)

	contentCalls int
	imagesCalls  int
}

func (m *mockAPI) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.contentCalls++
	if m.generateContentFunc != nil {
		return m.generateContentFunc(ctx, model, contents, config)
	}
	return imageContentResponse("image/png", []byte("fake")), nil
}

func (m *mockAPI) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	m.imagesCalls++
	if m.generateImagesFunc != nil {
		return m.generateImagesFunc(ctx, model, prompt, config)
	}
	return imagesResponse("image/png", []byte("fake")), nil
}

// imageContentResponse は画像パーツを1つ含む generateContent 応答を組み立てるのだ。
func imageContentResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
		}},
	}
}

// imagesResponse は画像を1枚含む generateImages 応答を組み立てるのだ。
func imagesResponse(mimeType string, data []byte) *genai.GenerateImagesResponse {
	return &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{
			Image: &genai.Image{MIMEType: mimeType, ImageBytes: data},
		}},
	}
}
