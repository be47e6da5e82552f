package dashscope

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wvclabs/customs-translator/pkg/providers"
)

func newTestProvider(serverURL string) *Provider {
	config := DefaultConfig()
	config.APIKey = "test-key"
	config.AppID = "test-app"
	config.APIEndpoint = serverURL
	return New(config)
}

func TestCallSuccess(t *testing.T) {
	var captured completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/apps/test-app/completion", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":{"text":"译文结果","session_id":"sess-1"},"request_id":"req-1"}`))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	resp, err := provider.Call(context.Background(), &providers.AppRequest{
		Prompt:      "请翻译：报关单",
		SessionID:   "sess-0",
		PipelineIDs: []string{"kb-1", "kb-2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "译文结果", resp.Text)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "req-1", resp.RequestID)

	// 知识库ID作为不透明值透传
	assert.Equal(t, "请翻译：报关单", captured.Input.Prompt)
	assert.Equal(t, "sess-0", captured.Input.SessionID)
	require.NotNil(t, captured.Parameters.RagOptions)
	assert.Equal(t, []string{"kb-1", "kb-2"}, captured.Parameters.RagOptions.PipelineIDs)
}

func TestCallUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"InvalidApiKey","message":"Invalid API-key provided."}`))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	_, err := provider.Call(context.Background(), &providers.AppRequest{Prompt: "test"})
	require.Error(t, err)
	assert.True(t, providers.IsUnavailable(err))
}

func TestCallEmptyOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":{"text":""},"request_id":"req-2"}`))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	_, err := provider.Call(context.Background(), &providers.AppRequest{Prompt: "test"})
	require.Error(t, err)

	var pe *providers.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, providers.ErrCodeBadResponse, pe.Code)
}

func TestCallNotConfigured(t *testing.T) {
	provider := New(DefaultConfig())

	assert.False(t, provider.Available())

	_, err := provider.Call(context.Background(), &providers.AppRequest{Prompt: "test"})
	require.Error(t, err)
	assert.True(t, providers.IsUnavailable(err))
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{
			name:   "正常响应",
			status: http.StatusOK,
			body:   `{"output":{"text":"pong"}}`,
		},
		{
			name:    "API Key无效",
			status:  http.StatusUnauthorized,
			body:    `{"code":"InvalidApiKey"}`,
			wantErr: true,
		},
		{
			name: "限流不算不可用",
			// 429属于业务调用时处理的错误，不影响健康判定
			status: http.StatusTooManyRequests,
			body:   `{"code":"Throttling"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := newTestProvider(server.URL)
			err := provider.HealthCheck(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateMemory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ws-1/memories", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"memoryId":"mem-123","requestId":"req-3"}`))
	}))
	defer server.Close()

	config := DefaultConfig()
	config.APIKey = "test-key"
	config.AppID = "test-app"
	config.APIEndpoint = server.URL
	config.WorkspaceID = "ws-1"
	provider := New(config)

	result, err := provider.CreateMemory(context.Background(), "海关业务长期记忆")
	require.NoError(t, err)
	assert.Equal(t, "mem-123", result.MemoryID)
	assert.Equal(t, "req-3", result.RequestID)
}

func TestCreateMemoryNoWorkspace(t *testing.T) {
	config := DefaultConfig()
	config.APIKey = "test-key"
	config.AppID = "test-app"
	provider := New(config)

	_, err := provider.CreateMemory(context.Background(), "")
	require.Error(t, err)
	assert.True(t, providers.IsUnavailable(err))
}
