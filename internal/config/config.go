// Package config 基于 viper 的配置加载。
// 配置来源优先级：命令行参数 > 环境变量 > 配置文件 > 默认值。
// 凭据只从环境变量或配置文件读取，没有内置默认值。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 服务全量配置
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DashScope  DashScopeConfig  `mapstructure:"dashscope"`
	Vivo       VivoConfig       `mapstructure:"vivo"`
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Prompt     PromptConfig     `mapstructure:"prompt"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// LogConfig 日志配置
type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// DashScopeConfig DashScope应用接口配置。
// PipelineIDs 是知识库索引的不透明标识，原样透传给接口。
type DashScopeConfig struct {
	APIKey      string   `mapstructure:"api_key"`
	AppID       string   `mapstructure:"app_id"`
	ModelName   string   `mapstructure:"model_name"`
	WorkspaceID string   `mapstructure:"workspace_id"`
	MemoryID    string   `mapstructure:"memory_id"`
	PipelineIDs []string `mapstructure:"pipeline_ids"`
	APIEndpoint string   `mapstructure:"api_endpoint"`
}

// VivoConfig VIVO蓝心大模型网关配置
type VivoConfig struct {
	AppID       string  `mapstructure:"app_id"`
	AppKey      string  `mapstructure:"app_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// DictionaryConfig 术语词典配置
type DictionaryConfig struct {
	// GlossaryPath 外部术语表路径，为空时只用内置词典
	GlossaryPath string `mapstructure:"glossary_path"`
}

// PromptConfig 提示词模板配置
type PromptConfig struct {
	// TemplatePath 模板文件路径，为空时按内置候选路径查找
	TemplatePath string `mapstructure:"template_path"`
}

// Load 加载配置。
// configPath 为空时在当前目录和用户主目录下查找 customs-translator.yaml。
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// 环境变量：CT_SERVER_PORT 这类前缀形式，外加几个历史变量名
	v.SetEnvPrefix("CT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("customs-translator")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		// 没有配置文件时全靠环境变量和默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("log.debug", false)

	v.SetDefault("dashscope.model_name", "qwen-plus-latest")
	v.SetDefault("dashscope.api_endpoint", "https://dashscope.aliyuncs.com")

	v.SetDefault("vivo.model", "vivo-BlueLM-TB-Pro")
	v.SetDefault("vivo.temperature", 0.1)
}

// bindLegacyEnv 绑定沿用下来的无前缀环境变量名
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("dashscope.api_key", "CT_DASHSCOPE_API_KEY", "DASHSCOPE_API_KEY")
	_ = v.BindEnv("dashscope.app_id", "CT_DASHSCOPE_APP_ID", "DASHSCOPE_APP_ID")
	_ = v.BindEnv("dashscope.workspace_id", "CT_DASHSCOPE_WORKSPACE_ID", "DASHSCOPE_WORKSPACE_ID")
	_ = v.BindEnv("dashscope.memory_id", "CT_DASHSCOPE_MEMORY_ID", "DASHSCOPE_MEMORY_ID")
	_ = v.BindEnv("vivo.app_id", "CT_VIVO_APP_ID", "VIVO_APP_ID")
	_ = v.BindEnv("vivo.app_key", "CT_VIVO_APP_KEY", "VIVO_APP_KEY")
	_ = v.BindEnv("server.port", "CT_SERVER_PORT", "PORT")
}

func validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("无效的端口号: %d", config.Server.Port)
	}
	if config.Vivo.Temperature < 0 || config.Vivo.Temperature > 2 {
		return fmt.Errorf("无效的温度参数: %v", config.Vivo.Temperature)
	}
	return nil
}
