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

// Package eino 将订票工具链挂到 eino ADK 上：ChatModelAgent 自主决定
// 工具调用顺序，作为规则 Planner 之外的模型驱动执行路径
package eino

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"booking-agent/internal/tool/registry"
	"booking-agent/pkg/config"
	"booking-agent/pkg/log"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
)

// BookingAgentID 默认 Runner 标识
const BookingAgentID = "booking_agent"

// Engine eino 引擎实例；Runner 懒创建
type Engine struct {
	runners map[string]*adk.Runner
	reg     *registry.Registry
	config  *config.Config
	logger  *log.Logger
	mu      sync.RWMutex
}

// NewEngine 创建 eino 引擎
func NewEngine(cfg *config.Config, logger *log.Logger, reg *registry.Registry) (*Engine, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	engine := &Engine{
		runners: make(map[string]*adk.Runner),
		reg:     reg,
		config:  cfg,
		logger:  logger,
	}
	logger.Info("eino 引擎初始化成功")
	return engine, nil
}

// ensureRunner 懒创建并注册 Runner
func (e *Engine) ensureRunner(agentID string) (*adk.Runner, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.runners[agentID]; ok {
		return r, nil
	}
	if agentID != BookingAgentID {
		return nil, fmt.Errorf("Runner %s not found", agentID)
	}
	ctx := context.Background()
	runner, err := e.createBookingRunner(ctx)
	if err != nil {
		return nil, err
	}
	e.runners[agentID] = runner
	return runner, nil
}

// createBookingRunner 创建订票 Agent Runner（桥接 Registry 中的三个工具）
func (e *Engine) createBookingRunner(ctx context.Context) (*adk.Runner, error) {
	if e.reg == nil {
		return nil, fmt.Errorf("工具 Registry 未配置")
	}

	cfg := &adk.ChatModelAgentConfig{
		ToolsConfig: adk.ToolsConfig{
			ToolsNodeConfig: compose.ToolsNodeConfig{
				Tools: ToolsFromRegistry(e.reg),
			},
		},
	}
	if chatModel, err := e.createChatModel(ctx); err == nil && chatModel != nil {
		cfg.Model = chatModel
	}

	agent, err := adk.NewChatModelAgent(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: agent,
	}), nil
}

// createChatModel 创建 OpenAI 兼容 ChatModel（根据 config.Model.Defaults.LLM 解析 provider.model_key）
func (e *Engine) createChatModel(ctx context.Context) (*openai.ChatModel, error) {
	if e.config == nil || e.config.Model.Defaults.LLM == "" {
		return nil, nil
	}
	provider, modelKey, err := parseDefaultKey(e.config.Model.Defaults.LLM)
	if err != nil {
		return nil, err
	}
	pc, ok := e.config.Model.LLM.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("LLM provider %q not configured", provider)
	}
	mi, ok := pc.Models[modelKey]
	if !ok {
		return nil, fmt.Errorf("LLM model %q not configured in provider %q", modelKey, provider)
	}
	if pc.APIKey == "" {
		return nil, fmt.Errorf("LLM provider %q api_key not configured", provider)
	}

	modelCfg := &openai.ChatModelConfig{
		Model:  mi.Name,
		APIKey: pc.APIKey,
	}
	if pc.BaseURL != "" {
		modelCfg.BaseURL = pc.BaseURL
	}
	chatModel, err := openai.NewChatModel(ctx, modelCfg)
	if err != nil {
		return nil, fmt.Errorf("创建 OpenAI ChatModel failed: %w", err)
	}
	return chatModel, nil
}

func parseDefaultKey(key string) (provider, modelKey string, err error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("default key 格式应为 provider.model_key，如 openai.gpt_4o_mini，当前: %q", key)
	}
	return parts[0], parts[1], nil
}

// CreateChatModel 根据配置创建 ChatModel（供 app 层复用）
func (e *Engine) CreateChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	cm, err := e.createChatModel(ctx)
	if err != nil || cm == nil {
		return nil, err
	}
	return cm, nil
}

// GetRunner 获取 Runner 实例（booking_agent 懒创建）
func (e *Engine) GetRunner(agentID string) (*adk.Runner, error) {
	e.mu.RLock()
	runner, exists := e.runners[agentID]
	e.mu.RUnlock()
	if exists {
		return runner, nil
	}
	return e.ensureRunner(agentID)
}

// Execute 以模型驱动方式执行一次订票请求，事件流式返回
func (e *Engine) Execute(ctx context.Context, agentID string, query string) (chan *adk.AgentEvent, error) {
	runner, err := e.GetRunner(agentID)
	if err != nil {
		return nil, err
	}

	iter := runner.Query(ctx, query)
	eventCh := make(chan *adk.AgentEvent)

	go func() {
		defer close(eventCh)
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			eventCh <- event
		}
	}()

	return eventCh, nil
}

// Shutdown 关闭 eino 引擎
func (e *Engine) Shutdown() error {
	e.logger.Info("eino 引擎关闭成功")
	return nil
}
