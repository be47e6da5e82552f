// Package server 提供HTTP接口层：请求校验、路由、CORS和静态页面。
// 业务逻辑都在 translator 包里，这里只做薄薄的一层。
package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wvclabs/customs-translator/internal/prompt"
	"github.com/wvclabs/customs-translator/internal/translator"
	"github.com/wvclabs/customs-translator/pkg/providers/dashscope"
)

// Server HTTP服务
type Server struct {
	engine       *gin.Engine
	orchestrator *translator.Orchestrator
	dash         *dashscope.Provider
	builder      *prompt.Builder
	logger       *zap.Logger
	staticDir    string
}

// New 创建HTTP服务。
// dash 是对话、名词解释、知识库和记忆体接口依赖的提供商，
// 翻译接口走 orchestrator 的完整降级链。
func New(orchestrator *translator.Orchestrator, dash *dashscope.Provider, builder *prompt.Builder, staticDir string, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine:       engine,
		orchestrator: orchestrator,
		dash:         dash,
		builder:      builder,
		logger:       log,
		staticDir:    staticDir,
	}

	engine.Use(gin.Recovery())
	engine.Use(s.requestLogger())
	engine.Use(corsMiddleware())

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.POST("/query", s.handleQuery)
		api.POST("/chat", s.handleChat)
		api.POST("/explain", s.handleExplain)
		api.POST("/knowledge", s.handleKnowledge)
		api.POST("/memory/create", s.handleMemoryCreate)
		api.POST("/memory/chat", s.handleMemoryChat)
		api.POST("/memory/save", s.handleMemorySave)
		api.POST("/show_last_answer_sources", s.handleShowLastAnswerSources)
		api.GET("/test", s.handleTest)
	}

	if s.staticDir != "" {
		s.engine.Static("/assets", filepath.Join(s.staticDir, "assets"))
		s.engine.Static("/styles", filepath.Join(s.staticDir, "styles"))
		index := filepath.Join(s.staticDir, "index.html")
		s.engine.GET("/", func(c *gin.Context) {
			c.File(index)
		})
		// 前端路由兜底
		s.engine.NoRoute(func(c *gin.Context) {
			c.File(index)
		})
	}
}

// Run 启动HTTP服务，阻塞直到出错
func (s *Server) Run(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("HTTP服务启动", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// Handler 返回底层的 http.Handler，测试用
func (s *Server) Handler() http.Handler {
	return s.engine
}

// requestLogger 请求日志中间件
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("HTTP请求",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// corsMiddleware 允许所有来源的跨域请求
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Max-Age", "3600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
