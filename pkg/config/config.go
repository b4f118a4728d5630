// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Booking    BookingConfig    `mapstructure:"booking"`
	Calendar   CalendarConfig   `mapstructure:"calendar"`
	Model      ModelConfig      `mapstructure:"model"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port      int        `mapstructure:"port"`
	Host      string     `mapstructure:"host"`
	Timeout   string     `mapstructure:"timeout"`
	CORS      CORSConfig `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitConfig API 层限流配置（token bucket）
type RateLimitConfig struct {
	Enable bool    `mapstructure:"enable"`
	QPS    float64 `mapstructure:"qps"`
	Burst  int     `mapstructure:"burst"`
}

// AgentConfig Agent 执行配置
type AgentConfig struct {
	// Planner 规划器选择：rule（固定流程，无 LLM）| llm | eino；空默认 rule
	Planner string `mapstructure:"planner"`
	// MaxIterations 单次 Run 的步数上限，<=0 使用默认 10
	MaxIterations int `mapstructure:"max_iterations"`
	// ObservationLimit 写入推理轨迹的观察文本截断长度，<=0 使用默认 200
	ObservationLimit int `mapstructure:"observation_limit"`
	// Temperature LLM 规划温度
	Temperature float64 `mapstructure:"temperature"`
}

// BookingConfig 预订守护配置
type BookingConfig struct {
	// BudgetLimit 进程级预算上限，<=0 使用默认 1000
	BudgetLimit float64 `mapstructure:"budget_limit"`
	// FailRate 模拟订座失败概率 [0,1)，默认 0.05
	FailRate float64 `mapstructure:"fail_rate"`
}

// CalendarConfig 日历写入配置
type CalendarConfig struct {
	// FailRate 模拟日历写入失败概率 [0,1)，默认 0.02
	FailRate float64 `mapstructure:"fail_rate"`
}

// ModelConfig 模型配置
type ModelConfig struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// LLMConfig LLM Provider 集合
type LLMConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig 单个 Provider 配置
type ProviderConfig struct {
	APIKey  string               `mapstructure:"api_key"`
	BaseURL string               `mapstructure:"base_url"`
	Models  map[string]ModelInfo `mapstructure:"models"`
}

// ModelInfo 模型条目
type ModelInfo struct {
	Name string `mapstructure:"name"`
}

// DefaultsConfig 默认模型选择，如 "openai.gpt_4"
type DefaultsConfig struct {
	LLM string `mapstructure:"llm"`
}

// SecretsConfig 密钥来源配置
type SecretsConfig struct {
	// Type env | vault；空默认 env
	Type string `mapstructure:"type"`
	// Vault 地址与挂载路径（type=vault 时使用）
	VaultAddr  string `mapstructure:"vault_addr"`
	VaultToken string `mapstructure:"vault_token"`
	VaultPath  string `mapstructure:"vault_path"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	if err := replaceEnvVars(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// replaceEnvVars 替换配置中的 ${ENV} 占位（模型 API Key）
func replaceEnvVars(config *Config) error {
	for provider, providerConfig := range config.Model.LLM.Providers {
		if strings.HasPrefix(providerConfig.APIKey, "$") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(providerConfig.APIKey, "}"), "${")
			if val := os.Getenv(envVar); val != "" {
				providerConfig.APIKey = val
				config.Model.LLM.Providers[provider] = providerConfig
			}
		}
	}
	return nil
}

// LoadAPIConfig 加载 API 配置（仅 configs/api.yaml）
func LoadAPIConfig() (*Config, error) {
	return LoadConfig("configs/api.yaml")
}

// LoadAPIConfigWithModel 加载 API 配置并合并 model 配置，便于规划器使用 LLM；model.yaml 缺失时仅用规则规划器
func LoadAPIConfigWithModel() (*Config, error) {
	cfg, err := LoadConfig("configs/api.yaml")
	if err != nil {
		return nil, err
	}
	modelCfg, err := LoadConfig("configs/model.yaml")
	if err == nil {
		cfg.Model = modelCfg.Model
	}
	return cfg, nil
}
