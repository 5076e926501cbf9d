// Package api 封装后端各 Lambda 端点的 JSON-over-HTTPS 调用。
// 所有响应经过统一的 API 网关代理信封解包（{statusCode, body} 且 body
// 可能是再编码的 JSON 字符串），字段形态交给 internal/normalize 处理。
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/config"
)

// Client 后端 API 客户端
type Client struct {
	httpClient *resty.Client
	endpoints  config.APIConfig
	logger     *zap.Logger
}

// NewClient 创建后端 API 客户端
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	client := resty.New().
		SetTimeout(cfg.HTTP.Timeout).
		SetRetryCount(cfg.HTTP.RetryCount).
		SetRetryWaitTime(cfg.HTTP.RetryWaitTime).
		SetRetryMaxWaitTime(cfg.HTTP.RetryMaxWaitTime).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.Auth.IDToken != "" {
		client.SetAuthToken(cfg.Auth.IDToken)
	}

	return &Client{
		httpClient: client,
		endpoints:  cfg.API,
		logger:     logger,
	}
}

// proxyEnvelope API 网关代理信封
type proxyEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// unwrapEnvelope 解开可能存在的代理信封
// 返回有效载荷和信封携带的状态码（无信封时返回 0）
func unwrapEnvelope(raw []byte) ([]byte, int, error) {
	var env proxyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.StatusCode == 0 {
		// 不是信封，按原始 JSON 处理
		return raw, 0, nil
	}
	if len(env.Body) == 0 {
		return []byte("{}"), env.StatusCode, nil
	}
	// body 可能是再编码的 JSON 字符串
	if env.Body[0] == '"' {
		var inner string
		if err := json.Unmarshal(env.Body, &inner); err != nil {
			return nil, env.StatusCode, fmt.Errorf("failed to decode envelope body string: %w", err)
		}
		return []byte(inner), env.StatusCode, nil
	}
	return env.Body, env.StatusCode, nil
}

// serverMessage 从错误响应体里尽力取 message 字段
func serverMessage(payload []byte) string {
	var probe struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	return probe.Message
}

// postJSON 向端点发送 JSON 请求体并解包响应
// out 为 nil 时只检查状态；payload 解析失败按"无数据"处理返回错误
func (c *Client) postJSON(ctx context.Context, url string, body any, out any) error {
	if url == "" {
		return fmt.Errorf("endpoint url is not configured")
	}

	start := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		Post(url)
	if err != nil {
		c.logger.Error("API call failed",
			zap.String("url", url),
			zap.Error(err),
		)
		return fmt.Errorf("request to %s failed: %w", url, err)
	}

	payload, envStatus, err := unwrapEnvelope(resp.Body())
	if err != nil {
		return fmt.Errorf("malformed response from %s: %w", url, err)
	}

	status := resp.StatusCode()
	if envStatus != 0 {
		status = envStatus
	}

	c.logger.Debug("API call completed",
		zap.String("url", url),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)

	if status == 404 {
		return fmt.Errorf("%w: %s", ErrNotFound, serverMessage(payload))
	}
	if status < 200 || status >= 300 {
		return &StatusError{Code: status, Message: serverMessage(payload)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		c.logger.Error("Failed to decode response body",
			zap.String("url", url),
			zap.Error(err),
		)
		return fmt.Errorf("malformed response from %s: %w", url, err)
	}
	return nil
}
