package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resty.dev/v3"
)

// ErrResultUnavailable 结果音频不存在（未完成、已过期或已被清理）
var ErrResultUnavailable = errors.New("result unavailable")

// RequestError 后端返回了非成功状态码
type RequestError struct {
	Op         string
	StatusCode int
	// Detail 后端给出的可读错误信息（可能为空）
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// Client HTTP 客户端，用于与转换后端通信
type Client struct {
	baseURL string
	http    *resty.Client
}

// ClientOption 客户端选项
type ClientOption func(*resty.Client)

// WithTimeout 设置单次请求超时
func WithTimeout(d time.Duration) ClientOption {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithHeader 为所有请求附加请求头
func WithHeader(key, value string) ClientOption {
	return func(c *resty.Client) { c.SetHeader(key, value) }
}

// NewClient 创建客户端
func NewClient(baseURL string, opts ...ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	rc := resty.New()
	rc.SetBaseURL(baseURL)
	rc.SetTimeout(30 * time.Second)
	for _, o := range opts {
		o(rc)
	}

	return &Client{baseURL: baseURL, http: rc}
}

// Close 释放底层连接
func (c *Client) Close() {
	c.http.Close()
}

// BaseURL 返回后端地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListVoices 获取可用音色列表（按后端返回顺序）
func (c *Client) ListVoices(ctx context.Context) ([]string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get("/api/voices")
	if err != nil {
		return nil, fmt.Errorf("list voices: send request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, requestError("list voices", resp.StatusCode(), resp.Bytes())
	}

	var voices []string
	if err := json.Unmarshal(resp.Bytes(), &voices); err != nil {
		return nil, fmt.Errorf("list voices: decode response: %w", err)
	}
	return voices, nil
}

// Ping 后端可用性检查（就绪探针使用）
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListVoices(ctx)
	return err
}

// Preview 合成一段试听音频，返回原始音频字节
func (c *Client) Preview(ctx context.Context, req PreviewRequest) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/preview")
	if err != nil {
		return nil, fmt.Errorf("preview: send request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, requestError("preview", resp.StatusCode(), resp.Bytes())
	}
	return resp.Bytes(), nil
}

// SubmitConversion 上传文档并创建转换任务，返回后端分配的 task_id
func (c *Client) SubmitConversion(ctx context.Context, doc Document, voice string) (string, error) {
	if doc.Open == nil {
		return "", errors.New("submit conversion: document has no content")
	}
	rd, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("submit conversion: open document: %w", err)
	}
	defer rd.Close()

	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("pdf_file", doc.Name, rd).
		SetFormData(map[string]string{"voice": voice}).
		Post("/api/convert")
	if err != nil {
		return "", fmt.Errorf("submit conversion: send request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", requestError("submit conversion", resp.StatusCode(), resp.Bytes())
	}

	var result SubmitResponse
	if err := json.Unmarshal(resp.Bytes(), &result); err != nil {
		return "", fmt.Errorf("submit conversion: decode response: %w", err)
	}
	if strings.TrimSpace(result.TaskID) == "" {
		return "", errors.New("submit conversion: decode response: missing task_id")
	}
	return result.TaskID, nil
}

// GetStatus 查询任务状态
func (c *Client) GetStatus(ctx context.Context, taskID string) (*StatusResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get("/api/status/" + url.PathEscape(taskID))
	if err != nil {
		return nil, fmt.Errorf("get status: send request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, requestError("get status", resp.StatusCode(), resp.Bytes())
	}

	var result StatusResponse
	if err := json.Unmarshal(resp.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("get status: decode response: %w", err)
	}
	return &result, nil
}

// DownloadURL 返回任务结果音频的引用地址（可直接播放或下载）
func (c *Client) DownloadURL(taskID string) string {
	return c.baseURL + "/api/download/" + url.PathEscape(taskID)
}

// FetchResult 下载任务结果音频并写入 w，返回写入字节数。
// 结果不存在时返回 ErrResultUnavailable。
func (c *Client) FetchResult(ctx context.Context, taskID string, w io.Writer) (int64, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/api/download/" + url.PathEscape(taskID))
	if err != nil {
		return 0, fmt.Errorf("fetch result: send request: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return 0, fmt.Errorf("fetch result %s: %w", taskID, ErrResultUnavailable)
	default:
		return 0, requestError("fetch result", resp.StatusCode(), resp.Bytes())
	}

	n, err := w.Write(resp.Bytes())
	if err != nil {
		return int64(n), fmt.Errorf("fetch result: write: %w", err)
	}
	return int64(n), nil
}

// requestError 从响应体中提取 detail 字段构造 RequestError
func requestError(op string, status int, body []byte) *RequestError {
	e := &RequestError{Op: op, StatusCode: status}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		// FastAPI 的校验错误 detail 是数组，只接受字符串形式
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil {
			e.Detail = strings.TrimSpace(detail)
		}
	}
	return e
}
