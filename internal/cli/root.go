// Package cli 命令行入口，负责把配置装配成可运行的HTTP服务。
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wvclabs/customs-translator/internal/config"
	"github.com/wvclabs/customs-translator/internal/logger"
	"github.com/wvclabs/customs-translator/internal/prompt"
	"github.com/wvclabs/customs-translator/internal/server"
	"github.com/wvclabs/customs-translator/internal/translator"
	"github.com/wvclabs/customs-translator/pkg/providers"
	"github.com/wvclabs/customs-translator/pkg/providers/dashscope"
	"github.com/wvclabs/customs-translator/pkg/providers/vivo"
)

var (
	// 命令行标志变量
	cfgFile     string
	port        int
	staticDir   string
	debugMode   bool
	showVersion bool
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "customs-translator [flags]",
		Short: "海关专业领域翻译服务",
		Long: `海关专业领域翻译服务，基于DashScope应用接口提供带完整工作流的专业翻译。
大模型不可用时自动降级到内置海关术语词典，保证翻译接口永远有结果返回。

支持的接口:
  - /api/query: 专业翻译（含工作流展示与服务降级）
  - /api/chat: 海关业务多轮对话
  - /api/explain: 专业名词解释
  - /api/knowledge: 知识库检索
  - /api/memory/*: 长期记忆体管理`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("海关翻译服务 %s (commit %s, built %s)\n", version, commit, buildDate)
				return nil
			}
			return runServer()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP监听端口（覆盖配置文件）")
	rootCmd.Flags().StringVar(&staticDir, "static-dir", "", "前端静态文件目录（覆盖配置文件）")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "启用调试日志")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "显示版本信息")

	return rootCmd
}

func runServer() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	// 命令行标志优先于配置文件
	if port != 0 {
		cfg.Server.Port = port
	}
	if staticDir != "" {
		cfg.Server.StaticDir = staticDir
	}
	if debugMode {
		cfg.Log.Debug = true
	}

	log := logger.NewLogger(cfg.Log.Debug)
	defer func() {
		_ = log.Sync()
	}()

	srv, err := buildServer(cfg, log)
	if err != nil {
		return err
	}
	return srv.Run(cfg.Server.Port)
}

// buildServer 按配置装配服务依赖
func buildServer(cfg *config.Config, log *zap.Logger) (*server.Server, error) {
	dash := newDashScope(cfg, log)

	tiers := []providers.Caller{dash}
	if v := newVivo(cfg, log); v != nil {
		tiers = append(tiers, v)
	}

	dict := translator.NewDictionary()
	if cfg.Dictionary.GlossaryPath != "" {
		if err := dict.LoadGlossary(cfg.Dictionary.GlossaryPath); err != nil {
			return nil, fmt.Errorf("加载术语表失败: %w", err)
		}
	}

	var template *prompt.Template
	if cfg.Prompt.TemplatePath != "" {
		template = prompt.LoadTemplate(cfg.Prompt.TemplatePath)
	} else {
		template = prompt.LoadTemplate()
	}
	builder := prompt.NewBuilder(template)

	orchestrator := translator.NewOrchestrator(tiers, dict, builder, translator.NewMemoryAnswerCache(), log)

	return server.New(orchestrator, dash, builder, cfg.Server.StaticDir, log), nil
}

func newDashScope(cfg *config.Config, log *zap.Logger) *dashscope.Provider {
	dc := dashscope.DefaultConfig()
	dc.APIKey = cfg.DashScope.APIKey
	dc.AppID = cfg.DashScope.AppID
	dc.WorkspaceID = cfg.DashScope.WorkspaceID
	dc.MemoryID = cfg.DashScope.MemoryID
	dc.PipelineIDs = cfg.DashScope.PipelineIDs
	if cfg.DashScope.ModelName != "" {
		dc.ModelName = cfg.DashScope.ModelName
	}
	if cfg.DashScope.APIEndpoint != "" {
		dc.APIEndpoint = cfg.DashScope.APIEndpoint
	}

	if dc.APIKey == "" || dc.AppID == "" {
		log.Warn("DashScope未配置API Key或App ID，大模型翻译不可用，将使用内置词典")
	}
	return dashscope.New(dc)
}

// newVivo 蓝心大模型是可选的中间层，未配置凭据时不参与降级链
func newVivo(cfg *config.Config, log *zap.Logger) *vivo.Provider {
	if cfg.Vivo.AppID == "" || cfg.Vivo.AppKey == "" {
		return nil
	}

	vc := vivo.DefaultConfig()
	vc.AppID = cfg.Vivo.AppID
	vc.AppKey = cfg.Vivo.AppKey
	if cfg.Vivo.Model != "" {
		vc.Model = cfg.Vivo.Model
	}
	if cfg.Vivo.Temperature > 0 {
		vc.Temperature = cfg.Vivo.Temperature
	}

	log.Info("已启用蓝心大模型备用翻译层", zap.String("model", vc.Model))
	return vivo.New(vc)
}
