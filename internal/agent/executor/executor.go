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

package executor

import (
	"context"
	"time"

	"booking-agent/internal/agent/planner"
	"booking-agent/internal/tool"
	"booking-agent/internal/tool/registry"
	"booking-agent/pkg/metrics"
)

// Executor 按规划步骤执行工具调用
type Executor interface {
	ExecuteStep(ctx context.Context, step *planner.Step) (tool.ToolResult, error)
}

// RegistryExecutor 从 Registry 取工具并执行，记录每次调用耗时
type RegistryExecutor struct {
	reg *registry.Registry
}

// NewRegistryExecutor 创建基于 Registry 的 Executor
func NewRegistryExecutor(reg *registry.Registry) *RegistryExecutor {
	return &RegistryExecutor{reg: reg}
}

// ExecuteStep 实现 Executor；未知工具作为结果值返回，不作为 error
func (e *RegistryExecutor) ExecuteStep(ctx context.Context, step *planner.Step) (tool.ToolResult, error) {
	if e.reg == nil {
		return tool.ToolResult{Err: "Registry 未配置"}, nil
	}
	t, ok := e.reg.Get(step.Tool)
	if !ok {
		return tool.ToolResult{Err: "未知工具: " + step.Tool}, nil
	}
	input := step.Input
	if input == nil {
		input = make(map[string]any)
	}

	start := time.Now()
	res, err := t.Execute(ctx, input)
	metrics.ToolDuration.WithLabelValues(step.Tool).Observe(time.Since(start).Seconds())
	return res, err
}
