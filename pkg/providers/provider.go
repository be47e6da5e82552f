package providers

import (
	"context"
	"errors"
	"time"
)

// BaseConfig 基础配置
type BaseConfig struct {
	// API配置
	APIKey      string `json:"api_key,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`

	// 请求超时
	Timeout time.Duration `json:"timeout"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() BaseConfig {
	return BaseConfig{
		Timeout: 60 * time.Second,
		Headers: make(map[string]string),
	}
}

// AppRequest 大模型应用调用请求
type AppRequest struct {
	// Prompt 完整的提示词文本
	Prompt string `json:"prompt"`
	// SessionID 多轮对话会话ID，可选
	SessionID string `json:"session_id,omitempty"`
	// MemoryID 长期记忆体ID，可选
	MemoryID string `json:"memory_id,omitempty"`
	// PipelineIDs 知识库ID列表，作为不透明值透传给远端应用
	PipelineIDs []string `json:"pipeline_ids,omitempty"`
}

// AppResponse 大模型应用调用响应
type AppResponse struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Caller 大模型应用调用接口。
// 核心逻辑只依赖这个窄接口，不关心远端应用的具体传输方式。
type Caller interface {
	// Call 发起一次调用，每个请求只尝试一次，不做内部重试
	Call(ctx context.Context, req *AppRequest) (*AppResponse, error)

	// GetName 获取提供商名称（用于 model_used / services_attempted）
	GetName() string

	// Available 报告提供商当前是否可用
	Available() bool

	// HealthCheck 健康检查
	HealthCheck(ctx context.Context) error
}

// 提供商错误代码
const (
	// ErrCodeUnavailable 服务未配置或当前不可达
	ErrCodeUnavailable = "unavailable"
	// ErrCodeCallFailed 远端返回非成功状态
	ErrCodeCallFailed = "call_failed"
	// ErrCodeBadResponse 响应结构异常，无法提取结果
	ErrCodeBadResponse = "bad_response"
)

// Error 提供商错误
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap 返回原因错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError 创建提供商错误
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause 创建带原因的提供商错误
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsUnavailable 判断错误是否为服务不可用
func IsUnavailable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeUnavailable
	}
	return false
}
