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

package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	"github.com/hertz-contrib/obs-opentelemetry/provider"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"golang.org/x/time/rate"

	"booking-agent/internal/agent"
	"booking-agent/internal/agent/executor"
	"booking-agent/internal/agent/planner"
	"booking-agent/internal/api/http"
	"booking-agent/internal/api/http/middleware"
	"booking-agent/internal/app"
	"booking-agent/internal/model/llm"
	"booking-agent/internal/runtime/eino"
	"booking-agent/internal/runtime/session"
	"booking-agent/pkg/config"
)

// otelProviderShutdown OpenTelemetry Provider 的关闭接口
type otelProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// App API 应用：装配编排器、会话与 HTTP 服务
type App struct {
	bootstrap    *app.Bootstrap
	agent        *agent.Agent
	sessions     *session.Manager
	engine       *eino.Engine
	router       *http.Router
	hertz        *server.Hertz
	otelProvider otelProviderShutdown
}

// NewApp 创建 API 应用。Planner 按配置选择：
// rule（默认，固定流程）| llm（OpenAI 兼容端点驱动）。
// 配置了模型时同时装配 eino 引擎，供 CLI 与实验路径使用。
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	if bootstrap == nil {
		return nil, fmt.Errorf("bootstrap 不能为空")
	}
	cfg := bootstrap.Config

	p, err := buildPlanner(cfg, bootstrap)
	if err != nil {
		return nil, err
	}

	opts := []agent.Option{}
	if cfg != nil {
		if cfg.Agent.MaxIterations > 0 {
			opts = append(opts, agent.WithMaxIterations(cfg.Agent.MaxIterations))
		}
		if cfg.Agent.ObservationLimit > 0 {
			opts = append(opts, agent.WithObservationLimit(cfg.Agent.ObservationLimit))
		}
	}
	bookingAgent := agent.New(p, executor.NewRegistryExecutor(bootstrap.Registry), bootstrap.Registry, bootstrap.Logger, opts...)

	sessions := session.NewManager(session.NewMemoryStore())
	handler := http.NewHandler(bookingAgent, sessions, bootstrap.Ledger, http.NewResultStore(0), bootstrap.Logger)

	mw := middleware.NewMiddleware()
	if cfg != nil {
		if cfg.API.CORS.Enable {
			mw.SetCORS(cfg.API.CORS.AllowOrigins)
		}
		if cfg.API.RateLimit.Enable {
			mw.SetRateLimit(cfg.API.RateLimit.QPS, cfg.API.RateLimit.Burst)
		}
	}
	router := http.NewRouter(handler, mw)

	appObj := &App{
		bootstrap: bootstrap,
		agent:     bookingAgent,
		sessions:  sessions,
		router:    router,
	}

	// 配置了默认模型时装配 eino 引擎（adk Runner + 工具桥接）
	if cfg != nil && cfg.Model.Defaults.LLM != "" {
		engine, err := eino.NewEngine(cfg, bootstrap.Logger, bootstrap.Registry)
		if err != nil {
			bootstrap.Logger.Warn("eino 引擎初始化失败，仅保留编排器路径", "error", err)
		} else {
			appObj.engine = engine
		}
	}
	if cfg != nil && cfg.Agent.Planner == "eino" && appObj.engine == nil {
		return nil, fmt.Errorf("planner=eino 需要在 configs/model.yaml 配置默认模型")
	}
	return appObj, nil
}

// buildPlanner 按配置选择规划器
func buildPlanner(cfg *config.Config, bootstrap *app.Bootstrap) (planner.Planner, error) {
	kind := ""
	if cfg != nil {
		kind = cfg.Agent.Planner
	}
	switch kind {
	case "", "rule":
		return planner.NewBookingPlanner(), nil
	case "eino":
		// eino 路径由 adk Runner 直接驱动工具（Engine/CLI -engine）；
		// HTTP 同步路径使用固定流程规划器
		return planner.NewBookingPlanner(), nil
	case "llm":
		client, err := buildLLMClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("初始化 LLM 规划器failed: %w", err)
		}
		return planner.NewLLMPlanner(client, cfg.Agent.Temperature), nil
	default:
		return nil, fmt.Errorf("未知的规划器类型: %s", kind)
	}
}

// buildLLMClient 按 model.defaults.llm（如 openai.gpt_4）装配带限流的 LLM 客户端
func buildLLMClient(cfg *config.Config) (llm.Client, error) {
	if cfg == nil || cfg.Model.Defaults.LLM == "" {
		return nil, fmt.Errorf("未配置默认模型")
	}
	parts := strings.SplitN(cfg.Model.Defaults.LLM, ".", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("默认模型格式应为 provider.model_key: %s", cfg.Model.Defaults.LLM)
	}
	providerName, modelKey := parts[0], parts[1]
	providerCfg, ok := cfg.Model.LLM.Providers[providerName]
	if !ok {
		return nil, fmt.Errorf("未配置模型 Provider: %s", providerName)
	}
	modelInfo, ok := providerCfg.Models[modelKey]
	if !ok {
		return nil, fmt.Errorf("Provider %s 未配置模型: %s", providerName, modelKey)
	}
	client, err := llm.NewClient(providerName, modelInfo.Name, providerCfg.APIKey, providerCfg.BaseURL)
	if err != nil {
		return nil, err
	}
	// 规划调用限流，保护上游配额
	return llm.NewRateLimitedClient(client, rate.NewLimiter(rate.Limit(2), 4)), nil
}

// Engine 返回 eino 引擎（未装配时为 nil）
func (a *App) Engine() *eino.Engine {
	return a.engine
}

// RunBooking 以新会话执行一次订票编排，供 CLI 等一次性调用
func (a *App) RunBooking(ctx context.Context, goal planner.Goal) (*agent.RunResult, error) {
	sess, err := a.sessions.Create(ctx)
	if err != nil {
		return nil, err
	}
	run, err := a.agent.Run(ctx, sess, goal)
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Save(ctx, sess); err != nil {
		a.bootstrap.Logger.Warn("保存会话失败", "session_id", sess.ID, "error", err)
	}
	return run, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"
func (a *App) Run(addr string) error {
	a.bootstrap.Logger.Info("API 服务启动", "addr", addr)

	// 使用 Hertz slog 扩展，与 bootstrap 配置对齐
	output := io.Writer(os.Stdout)
	if a.bootstrap.Config != nil && a.bootstrap.Config.Log.File != "" {
		f, err := os.OpenFile(a.bootstrap.Config.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		output = f
	}
	levelVar := &slog.LevelVar{}
	if a.bootstrap.Config != nil {
		switch a.bootstrap.Config.Log.Level {
		case "debug":
			levelVar.Set(slog.LevelDebug)
		case "warn":
			levelVar.Set(slog.LevelWarn)
		case "error":
			levelVar.Set(slog.LevelError)
		default:
			levelVar.Set(slog.LevelInfo)
		}
	} else {
		levelVar.Set(slog.LevelInfo)
	}
	hertzLogger := hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	)
	hlog.SetLogger(hertzLogger)

	// 可选：启用链路追踪（OpenTelemetry）
	if a.bootstrap.Config != nil && a.bootstrap.Config.Monitoring.Tracing.Enable {
		serviceName := a.bootstrap.Config.Monitoring.Tracing.ServiceName
		if serviceName == "" {
			serviceName = "booking-agent"
		}
		exportEndpoint := a.bootstrap.Config.Monitoring.Tracing.ExportEndpoint
		if exportEndpoint == "" {
			exportEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		}
		if exportEndpoint != "" {
			opts := []provider.Option{
				provider.WithServiceName(serviceName),
				provider.WithExportEndpoint(exportEndpoint),
			}
			if a.bootstrap.Config.Monitoring.Tracing.Insecure {
				opts = append(opts, provider.WithInsecure())
			}
			p := provider.NewOpenTelemetryProvider(opts...)
			a.otelProvider = p
			tracerOpt, cfg := hertztracing.NewServerTracer()
			a.hertz = a.router.Build(addr, tracerOpt)
			a.hertz.Use(hertztracing.ServerMiddleware(cfg))
			a.bootstrap.Logger.Info("链路追踪已启用", "service_name", serviceName, "endpoint", exportEndpoint)
		} else {
			a.hertz = a.router.Build(addr)
		}
	} else {
		a.hertz = a.router.Build(addr)
	}
	return a.hertz.Run()
}

// Shutdown 优雅关闭（传入 ctx 以支持超时，如 cmd 层 WithTimeout）
func (a *App) Shutdown(ctx context.Context) error {
	if a.otelProvider != nil {
		_ = a.otelProvider.Shutdown(ctx)
	}
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	if a.engine != nil {
		if err := a.engine.Shutdown(); err != nil {
			return err
		}
	}
	return nil
}
