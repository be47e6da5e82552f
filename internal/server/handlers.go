package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wvclabs/customs-translator/internal/logger"
	"github.com/wvclabs/customs-translator/internal/translator"
	"github.com/wvclabs/customs-translator/pkg/providers"
)

type queryRequest struct {
	Message    string `json:"message"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
}

// handleQuery 翻译查询，走完整的服务降级链
func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求格式错误")
		return
	}

	s.logger.Info("收到翻译请求",
		zap.String("message", logger.Preview(req.Message, 60)),
		zap.String("source_lang", req.SourceLang),
		zap.String("target_lang", req.TargetLang))

	result, err := s.orchestrator.Translate(c.Request.Context(), &translator.Request{
		Text:         req.Message,
		SourceLang:   req.SourceLang,
		TargetLang:   req.TargetLang,
		ShowWorkflow: true,
	})
	if err != nil {
		s.respondTranslateError(c, err)
		return
	}

	respondOK(c, gin.H{
		"content":               result.Content,
		"explanation":           result.Explanation,
		"model_used":            result.ModelUsed,
		"services_attempted":    result.ServicesAttempted,
		"is_direct_translation": result.IsDirectTranslation,
	})
}

func (s *Server) respondTranslateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, translator.ErrEmptyInput):
		respondError(c, http.StatusBadRequest, "翻译内容不能为空")
	case errors.Is(err, translator.ErrNoCachedAnswer):
		respondError(c, http.StatusNotFound, "没有可用的上一次翻译结果")
	case providers.IsUnavailable(err):
		respondError(c, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "翻译失败: "+err.Error())
	}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Context   string `json:"context"`
}

// handleChat 海关专业对话，携带session_id时为多轮对话。
// 消息本身是翻译请求或来源/译文查询时改走翻译编排链，并照常读写结果缓存。
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		respondError(c, http.StatusBadRequest, "对话内容不能为空")
		return
	}

	if intent, _ := translator.DetectIntent(req.Message); intent != translator.IntentNormal ||
		translator.IsTranslationRequest(req.Message) {
		result, err := s.orchestrator.Translate(c.Request.Context(), &translator.Request{
			Text:         req.Message,
			ShowWorkflow: true,
		})
		if err != nil {
			s.respondTranslateError(c, err)
			return
		}
		respondOK(c, gin.H{
			"content":    result.Content,
			"session_id": req.SessionID,
			"model_used": result.ModelUsed,
		})
		return
	}

	if !s.dash.Available() {
		respondError(c, http.StatusServiceUnavailable, "DashScope服务不可用")
		return
	}

	resp, err := s.dash.Call(c.Request.Context(), &providers.AppRequest{
		Prompt:    s.builder.Chat(req.Message, req.Context),
		SessionID: req.SessionID,
	})
	if err != nil {
		s.respondProviderError(c, err)
		return
	}

	respondOK(c, gin.H{
		"content":    resp.Text,
		"session_id": resp.SessionID,
		"model_used": s.dash.ModelName(),
	})
}

type explainRequest struct {
	Term    string `json:"term"`
	Context string `json:"context"`
}

// handleExplain 专业名词解释
func (s *Server) handleExplain(c *gin.Context) {
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Term) == "" {
		respondError(c, http.StatusBadRequest, "专业名词不能为空")
		return
	}

	if !s.dash.Available() {
		respondError(c, http.StatusServiceUnavailable, "DashScope服务不可用")
		return
	}

	resp, err := s.dash.Call(c.Request.Context(), &providers.AppRequest{
		Prompt: s.builder.Explanation(req.Term, req.Context),
	})
	if err != nil {
		s.respondProviderError(c, err)
		return
	}

	respondOK(c, gin.H{
		"content":    resp.Text,
		"term":       req.Term,
		"model_used": s.dash.ModelName(),
	})
}

type knowledgeRequest struct {
	Query       string   `json:"query"`
	PipelineIDs []string `json:"pipeline_ids"`
}

// handleKnowledge 知识库检索，pipeline_ids作为不透明值透传
func (s *Server) handleKnowledge(c *gin.Context) {
	var req knowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		respondError(c, http.StatusBadRequest, "查询内容不能为空")
		return
	}

	if !s.dash.Available() {
		respondError(c, http.StatusServiceUnavailable, "DashScope服务不可用")
		return
	}

	resp, err := s.dash.Call(c.Request.Context(), &providers.AppRequest{
		Prompt:      req.Query,
		PipelineIDs: req.PipelineIDs,
	})
	if err != nil {
		s.respondProviderError(c, err)
		return
	}

	respondOK(c, gin.H{
		"content":      resp.Text,
		"query":        req.Query,
		"pipeline_ids": req.PipelineIDs,
		"model_used":   s.dash.ModelName(),
	})
}

type memoryCreateRequest struct {
	Description string `json:"description"`
}

// handleMemoryCreate 创建长期记忆体
func (s *Server) handleMemoryCreate(c *gin.Context) {
	var req memoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求格式错误")
		return
	}

	result, err := s.dash.CreateMemory(c.Request.Context(), req.Description)
	if err != nil {
		s.respondProviderError(c, err)
		return
	}

	respondOK(c, gin.H{
		"memory_id":   result.MemoryID,
		"description": req.Description,
		"request_id":  result.RequestID,
	})
}

type memoryChatRequest struct {
	Message  string `json:"message"`
	MemoryID string `json:"memory_id"`
	Context  string `json:"context"`
}

// handleMemoryChat 带长期记忆的对话
func (s *Server) handleMemoryChat(c *gin.Context) {
	var req memoryChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		respondError(c, http.StatusBadRequest, "对话内容不能为空")
		return
	}

	if !s.dash.Available() {
		respondError(c, http.StatusServiceUnavailable, "DashScope服务不可用")
		return
	}

	memoryID := req.MemoryID
	if memoryID == "" {
		memoryID = s.dash.DefaultMemoryID()
	}

	resp, err := s.dash.Call(c.Request.Context(), &providers.AppRequest{
		Prompt:   s.builder.MemoryChat(req.Message, req.Context),
		MemoryID: memoryID,
	})
	if err != nil {
		s.respondProviderError(c, err)
		return
	}

	respondOK(c, gin.H{
		"content":    resp.Text,
		"memory_id":  memoryID,
		"model_used": s.dash.ModelName(),
	})
}

type memorySaveRequest struct {
	Info     string `json:"info"`
	MemoryID string `json:"memory_id"`
}

// handleMemorySave 保存信息到长期记忆体
func (s *Server) handleMemorySave(c *gin.Context) {
	var req memorySaveRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Info) == "" {
		respondError(c, http.StatusBadRequest, "保存内容不能为空")
		return
	}

	if err := s.dash.SaveMemoryInfo(c.Request.Context(), req.Info, req.MemoryID); err != nil {
		s.respondProviderError(c, err)
		return
	}

	memoryID := req.MemoryID
	if memoryID == "" {
		memoryID = s.dash.DefaultMemoryID()
	}

	respondOK(c, gin.H{
		"info":      req.Info,
		"memory_id": memoryID,
		"message":   "信息已保存到长期记忆体",
	})
}

// handleShowLastAnswerSources 查询上一次翻译的引用来源
func (s *Server) handleShowLastAnswerSources(c *gin.Context) {
	result, err := s.orchestrator.ShowSources(c.Request.Context())
	if err != nil {
		s.respondTranslateError(c, err)
		return
	}

	respondOK(c, gin.H{
		"formatted_sources": result.Content,
		"model_used":        result.ModelUsed,
	})
}

// handleTest 服务状态检查，保持扁平结构不走包络
func (s *Server) handleTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":              "ok",
		"dashscope_available": s.dash.Available(),
		"timestamp":           time.Now().Unix(),
		"message":             "海关翻译服务运行正常",
	})
}

func (s *Server) respondProviderError(c *gin.Context, err error) {
	if providers.IsUnavailable(err) {
		respondError(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondError(c, http.StatusInternalServerError, err.Error())
}
