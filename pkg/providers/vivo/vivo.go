// Package vivo 实现VIVO蓝心大模型网关客户端。
// 网关使用自定义的HMAC签名认证，见 sign.go。
package vivo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/wvclabs/customs-translator/pkg/providers"
)

// Config 蓝心大模型配置
type Config struct {
	providers.BaseConfig
	// AppID 网关应用ID
	AppID string `json:"app_id"`
	// AppKey 网关签名密钥
	AppKey string `json:"app_key"`
	// Model 模型名称
	Model string `json:"model"`
	// URI 补全接口路径，参与签名计算
	URI string `json:"uri"`
	// Temperature 采样温度，翻译任务用低温度保证稳定输出
	Temperature float64 `json:"temperature"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "vivo-BlueLM-TB-Pro",
		URI:         "/vivogpt/completions",
		Temperature: 0.1,
	}
	config.APIEndpoint = "https://api-ai.vivo.com.cn"
	return config
}

// Provider 蓝心大模型提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	available  bool
}

// 确保 Provider 实现 providers.Caller 接口
var _ providers.Caller = (*Provider)(nil)

// New 创建新的蓝心大模型提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = "https://api-ai.vivo.com.cn"
	}
	if config.URI == "" {
		config.URI = "/vivogpt/completions"
	}

	return &Provider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		available: config.AppID != "" && config.AppKey != "",
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "VIVO-BlueLM-70B"
}

// Available 报告提供商当前是否可用
func (p *Provider) Available() bool {
	return p.available
}

// HealthCheck 健康检查，只校验配置完整性。
// 网关没有探活接口，实际连通性在业务调用时暴露。
func (p *Provider) HealthCheck(ctx context.Context) error {
	if !p.available {
		return providers.NewError(providers.ErrCodeUnavailable, "蓝心大模型未配置App ID或App Key")
	}
	return nil
}

// completionRequest 补全请求体
type completionRequest struct {
	Model     string          `json:"model"`
	Prompt    string          `json:"prompt"`
	SessionID string          `json:"sessionId"`
	Extra     completionExtra `json:"extra"`
}

type completionExtra struct {
	Temperature float64 `json:"temperature"`
}

// completionResponse 补全响应体，code为0表示成功
type completionResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Content   string `json:"content"`
		SessionID string `json:"sessionId"`
		RequestID string `json:"requestId"`
	} `json:"data"`
}

// Call 调用补全接口
func (p *Provider) Call(ctx context.Context, req *providers.AppRequest) (*providers.AppResponse, error) {
	if !p.available {
		return nil, providers.NewError(providers.ErrCodeUnavailable, "蓝心大模型服务不可用")
	}

	requestID := uuid.NewString()
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	body := completionRequest{
		Model:     p.config.Model,
		Prompt:    req.Prompt,
		SessionID: sessionID,
		Extra:     completionExtra{Temperature: p.config.Temperature},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeCallFailed, "编码请求失败", err)
	}

	query := map[string]string{"requestId": requestID}
	reqURL := fmt.Sprintf("%s%s?requestId=%s", p.config.APIEndpoint, p.config.URI, url.QueryEscape(requestID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeCallFailed, "创建请求失败", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range genSignHeaders(p.config.AppID, p.config.AppKey, http.MethodPost, p.config.URI, query) {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeCallFailed, "蓝心大模型请求失败", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeCallFailed, "读取响应失败", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("API调用失败: %d - %s", httpResp.StatusCode, string(data))
		if httpResp.StatusCode == http.StatusUnauthorized {
			return nil, providers.NewError(providers.ErrCodeUnavailable, msg)
		}
		return nil, providers.NewError(providers.ErrCodeCallFailed, msg)
	}

	var resp completionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeBadResponse, "解析响应失败", err)
	}
	if resp.Code != 0 {
		return nil, providers.NewError(providers.ErrCodeCallFailed,
			fmt.Sprintf("模型调用失败: %d - %s", resp.Code, resp.Msg))
	}
	if resp.Data.Content == "" {
		return nil, providers.NewError(providers.ErrCodeBadResponse, "无法提取结果，响应结构异常")
	}

	return &providers.AppResponse{
		Text:      resp.Data.Content,
		SessionID: resp.Data.SessionID,
		RequestID: resp.Data.RequestID,
	}, nil
}
