// Package llm provides a client for the Gemini generative language API.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gena-go/internal/config"

	"github.com/gorilla/websocket"
)

// ErrRemoteAPI 表示上游模型 API 调用失败。
// 调用方可以用同样的请求重试一次，之后应向用户返回临时不可用提示。
var ErrRemoteAPI = errors.New("remote model api failure")

// MessageWriter defines an interface for writing WebSocket messages.
// This allows both a standard websocket.Conn and an interceptor to be used.
type MessageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Client defines the interface for a generative model client.
type Client interface {
	// GenerateContent 以多轮 contents 调用指定模型，返回完整的文本回复。
	GenerateContent(ctx context.Context, model string, contents []Content, systemInstruction string) (string, error)
	// StreamGenerateContent 以 SSE 方式调用模型，并将文本分块写入 writer。
	StreamGenerateContent(ctx context.Context, model string, contents []Content, systemInstruction string, writer MessageWriter) error
}

// Part 是一条消息的组成部分：纯文本或内联图片数据。
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData 携带 base64 编码的二进制内容。
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content 是一条带角色的消息，角色为 "user" 或 "model"。
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// TextContent 构造一条纯文本消息。
func TextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents          []Content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *Content          `json:"system_instruction,omitempty"`
	SafetySettings    []safetySetting   `json:"safetySettings,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type geminiClient struct {
	cfg    config.GeminiConfig
	client *http.Client
}

// NewClient creates a new Gemini client from the configuration.
func NewClient(cfg config.GeminiConfig) Client {
	return &geminiClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// buildRequest 组装请求体：注入生成参数与全局安全策略。
func (c *geminiClient) buildRequest(contents []Content, systemInstruction string) (*generateRequest, error) {
	if len(contents) == 0 {
		return nil, fmt.Errorf("contents cannot be empty")
	}

	req := &generateRequest{Contents: contents}

	gen := c.cfg.Generation
	if gen.Temperature != 0 || gen.TopK != 0 || gen.TopP != 0 || gen.MaxOutputTokens != 0 {
		req.GenerationConfig = &generationConfig{
			Temperature:     gen.Temperature,
			TopK:            gen.TopK,
			TopP:            gen.TopP,
			MaxOutputTokens: gen.MaxOutputTokens,
		}
	}

	if systemInstruction != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: systemInstruction}}}
	}

	for _, s := range c.cfg.Safety {
		if s.Category == "" || s.Threshold == "" {
			continue
		}
		req.SafetySettings = append(req.SafetySettings, safetySetting{
			Category:  s.Category,
			Threshold: s.Threshold,
		})
	}
	return req, nil
}

func (c *geminiClient) endpoint(model, method string) string {
	base := strings.TrimSuffix(c.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/%s:%s?key=%s", base, model, method, c.cfg.APIKey)
}

// GenerateContent 调用 generateContent 接口并拼接候选文本。
func (c *geminiClient) GenerateContent(ctx context.Context, model string, contents []Content, systemInstruction string) (string, error) {
	reqBody, err := c.buildRequest(contents, systemInstruction)
	if err != nil {
		return "", err
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint(model, "generateContent"), bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteAPI, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrRemoteAPI, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %s, body: %s", ErrRemoteAPI, resp.Status, string(bodyBytes))
	}

	var parsed generateResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", ErrRemoteAPI, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: api error %d: %s", ErrRemoteAPI, parsed.Error.Code, parsed.Error.Message)
	}

	var text strings.Builder
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			text.WriteString(part.Text)
		}
		break // 只取首个候选
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: empty response", ErrRemoteAPI)
	}
	return text.String(), nil
}

// StreamGenerateContent 调用 streamGenerateContent 的 SSE 变体，将分块文本写入 writer。
func (c *geminiClient) StreamGenerateContent(ctx context.Context, model string, contents []Content, systemInstruction string, writer MessageWriter) error {
	reqBody, err := c.buildRequest(contents, systemInstruction)
	if err != nil {
		return err
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal stream request: %w", err)
	}

	url := c.endpoint(model, "streamGenerateContent") + "&alt=sse"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %s, body: %s", ErrRemoteAPI, resp.Status, string(bodyBytes))
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("%w: read stream: %v", ErrRemoteAPI, err)
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if strings.TrimSpace(data) == "[DONE]" {
			break
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		for _, cand := range chunk.Candidates {
			for _, part := range cand.Content.Parts {
				if part.Text == "" {
					continue
				}
				if err := writer.WriteMessage(websocket.TextMessage, []byte(part.Text)); err != nil {
					return fmt.Errorf("failed to write message to websocket: %w", err)
				}
			}
			break
		}
	}
	return nil
}
