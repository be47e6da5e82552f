package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wvclabs/customs-translator/pkg/providers"
)

// MemoryResult 记忆体创建结果
type MemoryResult struct {
	MemoryID  string `json:"memory_id"`
	RequestID string `json:"request_id,omitempty"`
}

type createMemoryRequest struct {
	Description string `json:"description,omitempty"`
}

type createMemoryResponse struct {
	MemoryID  string `json:"memoryId"`
	RequestID string `json:"requestId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// CreateMemory 创建长期记忆体
func (p *Provider) CreateMemory(ctx context.Context, description string) (*MemoryResult, error) {
	if !p.available {
		return nil, providers.NewError(providers.ErrCodeUnavailable, "DashScope服务不可用")
	}
	if p.config.WorkspaceID == "" {
		return nil, providers.NewError(providers.ErrCodeUnavailable, "DashScope未配置业务空间ID")
	}

	payload, err := json.Marshal(createMemoryRequest{Description: description})
	if err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeCallFailed, "编码记忆体请求失败", err)
	}

	url := fmt.Sprintf("%s/api/v1/%s/memories", p.config.APIEndpoint, p.config.WorkspaceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeCallFailed, "创建记忆体请求失败", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeCallFailed, "创建记忆体请求失败", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeCallFailed, "读取记忆体响应失败", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, providers.NewError(providers.ErrCodeCallFailed,
			fmt.Sprintf("创建记忆体失败: %d - %s", httpResp.StatusCode, string(data)))
	}

	var resp createMemoryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, providers.NewErrorWithCause(providers.ErrCodeBadResponse, "解析记忆体响应失败", err)
	}
	if resp.MemoryID == "" {
		return nil, providers.NewError(providers.ErrCodeBadResponse, "响应中缺少memoryId")
	}

	return &MemoryResult{
		MemoryID:  resp.MemoryID,
		RequestID: resp.RequestID,
	}, nil
}

// SaveMemoryInfo 通过对话的方式把信息写入记忆体
func (p *Provider) SaveMemoryInfo(ctx context.Context, info, memoryID string) error {
	if memoryID == "" {
		memoryID = p.config.MemoryID
	}

	_, err := p.Call(ctx, &providers.AppRequest{
		Prompt:   "请记住以下信息：" + info,
		MemoryID: memoryID,
	})
	return err
}
