package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client は httpkit.ClientInterface を満たす net/http ベースの実装です。
type Client struct {
	c *http.Client
}

// NewClient はタイムアウト付きの Client を返します。
func NewClient(timeout time.Duration) *Client {
	return &Client{c: &http.Client{Timeout: timeout}}
}

// DoRequest はリクエストを実行し、成功時のボディを返します。
func (c *Client) DoRequest(req *http.Request) ([]byte, error) {
	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTPステータス異常: %s (%s)", resp.Status, req.URL)
	}
	return io.ReadAll(resp.Body)
}

// FetchBytes は GET でボディのバイト列を取得します。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.DoRequest(req)
}

// FetchAndDecodeJSON は GET したボディを JSON として v へデコードします。
func (c *Client) FetchAndDecodeJSON(ctx context.Context, url string, v any) error {
	body, err := c.FetchBytes(ctx, url)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// PostJSONAndFetchBytes は data を JSON で POST し、ボディを返します。
func (c *Client) PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return c.PostRawBodyAndFetchBytes(ctx, url, payload, "application/json")
}

// PostRawBodyAndFetchBytes は任意のボディを POST し、応答ボディを返します。
func (c *Client) PostRawBodyAndFetchBytes(ctx context.Context, url string, body []byte, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.DoRequest(req)
}
