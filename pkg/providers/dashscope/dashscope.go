package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/wvclabs/customs-translator/pkg/providers"
)

// Config DashScope配置
type Config struct {
	providers.BaseConfig
	// AppID 已训练好的海关翻译应用ID
	AppID string `json:"app_id"`
	// ModelName 应用背后的模型名称，仅用于结果标注
	ModelName string `json:"model_name"`
	// WorkspaceID 业务空间ID，记忆体接口使用
	WorkspaceID string `json:"workspace_id"`
	// MemoryID 默认长期记忆体ID
	MemoryID string `json:"memory_id"`
	// PipelineIDs 默认知识库ID列表
	PipelineIDs []string `json:"pipeline_ids"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
		ModelName:  "qwen-plus-latest",
	}
	config.APIEndpoint = "https://dashscope.aliyuncs.com"
	return config
}

// Provider DashScope应用提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	available  bool
}

// 确保 Provider 实现 providers.Caller 接口
var _ providers.Caller = (*Provider)(nil)

// New 创建新的DashScope提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = "https://dashscope.aliyuncs.com"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "dashscope",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Provider{
		config:  config,
		breaker: breaker,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		available: config.APIKey != "" && config.AppID != "",
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "DashScope-Customs"
}

// Available 报告提供商当前是否可用。
// 配置缺失或熔断器打开时视为不可用，调用方据此直接降级到下一层。
func (p *Provider) Available() bool {
	return p.available && p.breaker.State() != gobreaker.StateOpen
}

// ModelName 返回应用背后的模型名称
func (p *Provider) ModelName() string {
	return p.config.ModelName
}

// DefaultMemoryID 返回默认记忆体ID
func (p *Provider) DefaultMemoryID() string {
	return p.config.MemoryID
}

// DefaultPipelineIDs 返回默认知识库ID列表
func (p *Provider) DefaultPipelineIDs() []string {
	return p.config.PipelineIDs
}

// Call 调用应用补全接口
func (p *Provider) Call(ctx context.Context, req *providers.AppRequest) (*providers.AppResponse, error) {
	if !p.available {
		return nil, providers.NewError(providers.ErrCodeUnavailable, "DashScope服务不可用")
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.call(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, providers.NewErrorWithCause(providers.ErrCodeUnavailable, "DashScope服务暂时不可用", err)
		}
		return nil, err
	}

	return result.(*providers.AppResponse), nil
}

// HealthCheck 健康检查。
// 发送最简单的探活请求，只有未授权（401）才视为不可用，
// 其他错误留给业务调用时再处理。
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.config.APIKey == "" || p.config.AppID == "" {
		return providers.NewError(providers.ErrCodeUnavailable, "DashScope未配置API Key或App ID")
	}

	// 探活不携带知识库参数，避免知识库配置问题影响连接判定
	_, status, err := p.doCompletion(ctx, &providers.AppRequest{Prompt: "ping"}, false)
	if err != nil && status == 0 {
		return providers.NewErrorWithCause(providers.ErrCodeUnavailable, "无法连接到DashScope", err)
	}
	if status == http.StatusUnauthorized {
		return providers.NewError(providers.ErrCodeUnavailable, "DashScope API Key无效")
	}
	return nil
}

// completionRequest 应用补全请求体
type completionRequest struct {
	Input      completionInput      `json:"input"`
	Parameters completionParameters `json:"parameters,omitempty"`
}

type completionInput struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
	MemoryID  string `json:"memory_id,omitempty"`
}

type completionParameters struct {
	RagOptions *ragOptions `json:"rag_options,omitempty"`
}

type ragOptions struct {
	PipelineIDs []string `json:"pipeline_ids"`
}

// completionResponse 应用补全响应体
type completionResponse struct {
	Output struct {
		Text      string `json:"text"`
		SessionID string `json:"session_id"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// call 执行一次补全调用并转换为通用响应
func (p *Provider) call(ctx context.Context, req *providers.AppRequest) (*providers.AppResponse, error) {
	resp, status, err := p.doCompletion(ctx, req, true)
	if err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeCallFailed, "DashScope请求失败", err)
	}

	if status != http.StatusOK {
		msg := fmt.Sprintf("API调用失败: %d - %s", status, resp.Message)
		if status == http.StatusUnauthorized || status == http.StatusServiceUnavailable {
			return nil, providers.NewError(providers.ErrCodeUnavailable, msg)
		}
		return nil, providers.NewError(providers.ErrCodeCallFailed, msg)
	}

	text := strings.TrimSpace(resp.Output.Text)
	if text == "" {
		return nil, providers.NewError(providers.ErrCodeBadResponse, "无法提取结果，响应结构异常")
	}

	return &providers.AppResponse{
		Text:      text,
		SessionID: resp.Output.SessionID,
		RequestID: resp.RequestID,
	}, nil
}

// doCompletion 发送补全请求，返回解析后的响应和HTTP状态码。
// useDefaults 为真时，请求未指定知识库ID则回落到配置的默认值。
func (p *Provider) doCompletion(ctx context.Context, req *providers.AppRequest, useDefaults bool) (*completionResponse, int, error) {
	body := completionRequest{
		Input: completionInput{
			Prompt:    req.Prompt,
			SessionID: req.SessionID,
			MemoryID:  req.MemoryID,
		},
	}
	pipelineIDs := req.PipelineIDs
	if len(pipelineIDs) == 0 && useDefaults {
		pipelineIDs = p.config.PipelineIDs
	}
	if len(pipelineIDs) > 0 {
		body.Parameters.RagOptions = &ragOptions{PipelineIDs: pipelineIDs}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/apps/%s/completion", p.config.APIEndpoint, p.config.AppID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	for k, v := range p.config.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	var resp completionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	return &resp, httpResp.StatusCode, nil
}
