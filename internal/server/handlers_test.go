package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wvclabs/customs-translator/internal/prompt"
	"github.com/wvclabs/customs-translator/internal/translator"
	"github.com/wvclabs/customs-translator/pkg/providers"
	"github.com/wvclabs/customs-translator/pkg/providers/dashscope"
)

const backendWorkflowText = "# 翻译工作流执行过程\\n## 1. 原文拆解与专业术语提取\\n- 报关单：Customs Declaration Form\\n\\n## 7. 最终译文\\nThe customs declaration form shall be submitted."

// newBackend 模拟DashScope应用接口的后端
func newBackend(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":{"text":"` + backendWorkflowText + `","session_id":"sess-1"},"request_id":"req-1"}`))
	}))
}

// newTestServer 构造测试服务。
// backendURL 为空表示DashScope未配置凭据。
func newTestServer(backendURL string) *Server {
	config := dashscope.DefaultConfig()
	if backendURL != "" {
		config.APIKey = "test-key"
		config.AppID = "test-app"
		config.APIEndpoint = backendURL
	}
	dash := dashscope.New(config)

	builder := prompt.NewBuilder(nil)
	cache := translator.NewMemoryAnswerCache()
	orchestrator := translator.NewOrchestrator(
		[]providers.Caller{dash},
		translator.NewDictionary(),
		builder,
		cache,
		zap.NewNop(),
	)

	return New(orchestrator, dash, builder, "", zap.NewNop())
}

func postJSON(t *testing.T, s *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, map[string]interface{}) {
	t.Helper()
	var resp struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code, resp.Data
}

func TestQuerySuccess(t *testing.T) {
	backend := newBackend(t)
	defer backend.Close()
	s := newTestServer(backend.URL)

	w := postJSON(t, s, "/api/query", jsonBody{"message": "报关单"})
	require.Equal(t, http.StatusOK, w.Code)

	code, data := decodeEnvelope(t, w)
	assert.Equal(t, 0, code)
	assert.Contains(t, data["content"], "【")
	assert.Equal(t, "DashScope-Customs", data["model_used"])
	assert.Equal(t, []interface{}{"DashScope-Customs"}, data["services_attempted"])
	assert.Equal(t, false, data["is_direct_translation"])
}

func TestQueryEmptyMessage(t *testing.T) {
	backend := newBackend(t)
	defer backend.Close()
	s := newTestServer(backend.URL)

	w := postJSON(t, s, "/api/query", jsonBody{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	code, _ := decodeEnvelope(t, w)
	assert.Equal(t, -1, code)
}

func TestQueryDictionaryFallback(t *testing.T) {
	// DashScope未配置时降级到词典
	s := newTestServer("")

	w := postJSON(t, s, "/api/query", jsonBody{"message": "保税区"})
	require.Equal(t, http.StatusOK, w.Code)

	code, data := decodeEnvelope(t, w)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Bonded Zone", data["content"])
	assert.Equal(t, "Enhanced-Dictionary", data["model_used"])
	assert.Equal(t, []interface{}{"Enhanced-Dictionary"}, data["services_attempted"])
}

func TestShowLastAnswerSourcesFlow(t *testing.T) {
	backend := newBackend(t)
	defer backend.Close()
	s := newTestServer(backend.URL)

	// 缓存为空时返回404
	w := postJSON(t, s, "/api/show_last_answer_sources", jsonBody{})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 一次成功翻译后可以查询来源
	w = postJSON(t, s, "/api/query", jsonBody{"message": "报关单"})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, s, "/api/show_last_answer_sources", jsonBody{})
	require.Equal(t, http.StatusOK, w.Code)
	code, data := decodeEnvelope(t, w)
	assert.Equal(t, 0, code)
	assert.NotEmpty(t, data["formatted_sources"])
	assert.Equal(t, "DashScope-Customs", data["model_used"])

	// 空输入请求清空缓存后重新变为404
	w = postJSON(t, s, "/api/query", jsonBody{"message": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, s, "/api/show_last_answer_sources", jsonBody{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChat(t *testing.T) {
	backend := newBackend(t)
	defer backend.Close()
	s := newTestServer(backend.URL)

	w := postJSON(t, s, "/api/chat", jsonBody{"message": "什么是保税区？"})
	require.Equal(t, http.StatusOK, w.Code)

	code, data := decodeEnvelope(t, w)
	assert.Equal(t, 0, code)
	assert.NotEmpty(t, data["content"])
	assert.Equal(t, "sess-1", data["session_id"])
	assert.Equal(t, "qwen-plus-latest", data["model_used"])
}

func TestChatRoutesTranslationRequest(t *testing.T) {
	backend := newBackend(t)
	defer backend.Close()
	s := newTestServer(backend.URL)

	// 对话消息是翻译请求时走翻译编排链，返回格式化结果并写缓存
	w := postJSON(t, s, "/api/chat", jsonBody{"message": "翻译：进出口货物报关单"})
	require.Equal(t, http.StatusOK, w.Code)

	code, data := decodeEnvelope(t, w)
	assert.Equal(t, 0, code)
	assert.Contains(t, data["content"], "【")
	assert.Equal(t, "DashScope-Customs", data["model_used"])

	// 随后可以在对话里只要最终译文
	w = postJSON(t, s, "/api/chat", jsonBody{"message": "显示最终译文"})
	require.Equal(t, http.StatusOK, w.Code)
	_, data = decodeEnvelope(t, w)
	assert.Equal(t, "The customs declaration form shall be submitted.", data["content"])
	assert.Equal(t, "AnswerCache", data["model_used"])
}

func TestChatEmptyMessage(t *testing.T) {
	backend := newBackend(t)
	defer backend.Close()
	s := newTestServer(backend.URL)

	w := postJSON(t, s, "/api/chat", jsonBody{"message": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatUnavailable(t *testing.T) {
	s := newTestServer("")

	w := postJSON(t, s, "/api/chat", jsonBody{"message": "你好"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExplain(t *testing.T) {
	backend := newBackend(t)
	defer backend.Close()
	s := newTestServer(backend.URL)

	w := postJSON(t, s, "/api/explain", jsonBody{"term": "HS编码"})
	require.Equal(t, http.StatusOK, w.Code)

	code, data := decodeEnvelope(t, w)
	assert.Equal(t, 0, code)
	assert.Equal(t, "HS编码", data["term"])
	assert.NotEmpty(t, data["content"])
}

func TestKnowledge(t *testing.T) {
	backend := newBackend(t)
	defer backend.Close()
	s := newTestServer(backend.URL)

	w := postJSON(t, s, "/api/knowledge", jsonBody{
		"query":        "原产地规则",
		"pipeline_ids": []string{"kb-1"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	code, data := decodeEnvelope(t, w)
	assert.Equal(t, 0, code)
	assert.Equal(t, "原产地规则", data["query"])
	assert.Equal(t, []interface{}{"kb-1"}, data["pipeline_ids"])
}

func TestTestEndpoint(t *testing.T) {
	backend := newBackend(t)
	defer backend.Close()
	s := newTestServer(backend.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, true, resp["dashscope_available"])
	assert.Equal(t, "海关翻译服务运行正常", resp["message"])
}

func TestCORSPreflight(t *testing.T) {
	backend := newBackend(t)
	defer backend.Close()
	s := newTestServer(backend.URL)

	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// jsonBody 测试请求体的简写
type jsonBody = map[string]interface{}
