package infrastructure

import (
	"context"
	"fmt"

	"dekor/internal/pkg/config"
	"dekor/internal/pkg/httpclient"
)

// TextGenHTTPAdapter 调用 OpenAI 兼容的 chat completions 接口。
// 只取第一个候选回复，其他字段原样丢弃。
type TextGenHTTPAdapter struct {
	client *httpclient.Client
	cfg    config.ChatConfig
}

func NewTextGenHTTPAdapter(client *httpclient.Client, cfg config.ChatConfig) *TextGenHTTPAdapter {
	return &TextGenHTTPAdapter{client: client, cfg: cfg}
}

type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

func (a *TextGenHTTPAdapter) Generate(ctx context.Context, message string) (string, error) {
	req := completionRequest{
		Model: a.cfg.Model,
		Messages: []completionMessage{
			{Role: "user", Content: message},
		},
	}

	headers := map[string]string{}
	if a.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + a.cfg.APIKey
	}

	var resp completionResponse
	if err := a.client.PostJSON(ctx, a.cfg.Endpoint, headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("text generation API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
