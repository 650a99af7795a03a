// Package telegram 提供了一个精简的 Telegram Bot API 客户端。
// 只封装机器人实际用到的方法：发消息与下载用户上传的图片。
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"gena-go/internal/config"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// Update 是 webhook 推送的单条更新。
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message 是一条入站消息，这里只保留机器人关心的字段。
type Message struct {
	MessageID int64       `json:"message_id"`
	From      *User       `json:"from"`
	Chat      Chat        `json:"chat"`
	Text      string      `json:"text"`
	Caption   string      `json:"caption"`
	Photo     []PhotoSize `json:"photo"`
}

// User 是消息的发送者。
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat 是消息所属的会话。
type Chat struct {
	ID int64 `json:"id"`
}

// PhotoSize 是同一张图片的某个尺寸，Telegram 按从小到大排列。
type PhotoSize struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// apiResponse 是 Bot API 的统一响应包装。
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// Client 是 Bot API 的 HTTP 客户端。
type Client struct {
	cfg    config.TelegramConfig
	client *http.Client
}

// NewClient 创建一个新的 Telegram 客户端。
func NewClient(cfg config.TelegramConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (c *Client) baseURL() string {
	if c.cfg.APIBaseURL != "" {
		return c.cfg.APIBaseURL
	}
	return defaultAPIBaseURL
}

// call 调用一个 Bot API 方法并解析统一响应包装。
func (c *Client) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL(), c.cfg.Token, method)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%s returned error: %s", method, envelope.Description)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
		}
	}
	return nil
}

// SendMessage 向指定会话发送一条文本消息。
// 超长文本的切分由调用方负责（Bot API 单条上限 4096 字符）。
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// GetFilePath 查询文件在 Bot API 文件服务器上的路径。
func (c *Client) GetFilePath(ctx context.Context, fileID string) (string, error) {
	var result struct {
		FilePath string `json:"file_path"`
		FileSize int64  `json:"file_size"`
	}
	payload := map[string]interface{}{"file_id": fileID}
	if err := c.call(ctx, "getFile", payload, &result); err != nil {
		return "", err
	}
	if c.cfg.MaxFileSize > 0 && result.FileSize > c.cfg.MaxFileSize {
		return "", fmt.Errorf("file %s exceeds max size (%d > %d)", fileID, result.FileSize, c.cfg.MaxFileSize)
	}
	return result.FilePath, nil
}

// DownloadFile 下载指定路径的文件内容。
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	url := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL(), c.cfg.Token, filePath)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
