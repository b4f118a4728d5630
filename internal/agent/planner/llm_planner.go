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

package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"booking-agent/internal/model/llm"
	"booking-agent/internal/runtime/session"
)

// DefaultTemperature LLM Planner 的默认采样温度
const DefaultTemperature = 0.7

// LLMPlanner 基于 LLM 的规划器：每轮将目标与已有观察交给模型，
// 由模型输出下一步（单个 JSON 对象）
type LLMPlanner struct {
	client      llm.Client
	temperature float64
}

// NewLLMPlanner 创建基于 LLM 的 Planner；temperature <= 0 时用默认值
func NewLLMPlanner(client llm.Client, temperature float64) *LLMPlanner {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &LLMPlanner{client: client, temperature: temperature}
}

// Next 实现 Planner：基于 session 轨迹做单步决策
func (p *LLMPlanner) Next(ctx context.Context, sess *session.Session, goal Goal, toolsSchemaJSON []byte) (*Step, error) {
	if p.client == nil {
		return &Step{Final: "Planner 未配置 LLM。"}, nil
	}
	toolsDesc := string(toolsSchemaJSON)
	if toolsDesc == "" {
		toolsDesc = "[]"
	}

	systemPrompt := `You are an expert autonomous flight booking agent. You have access to the tools below.
Available tools (JSON): ` + toolsDesc + `

Your approach:
1. SEARCH for available flights first
2. SELECT the cheapest flight within budget from the results
3. BOOK the selected flight
4. ADD the booking to the calendar
Be autonomous - make decisions without asking for confirmation.

输出格式（仅输出合法 JSON，不要其他文字）：
- 若需调用工具：{"tool":"工具名","input":{...}}
- 若流程已结束（成功或失败）：{"final_answer":"最终总结"}
只输出一种，不要同时写 tool 和 final_answer。`

	messages := []llm.Message{{Role: "system", Content: systemPrompt}}
	messages = append(messages, session.MessagesToLLM(sess.CopyMessages())...)
	messages = append(messages, llm.Message{Role: "user", Content: "User Requirements:\n" + goal.Describe()})
	for _, step := range sess.CopySteps() {
		obs := step.Observation
		if step.Err != "" {
			obs = "error: " + step.Err
		}
		messages = append(messages, llm.Message{Role: "assistant", Content: "Tool " + step.Action + " result: " + obs})
	}
	messages = append(messages, llm.Message{Role: "user", Content: "请输出下一步（单个 JSON 对象）："})

	opts := llm.GenerateOptions{MaxTokens: 1024, Temperature: p.temperature}
	reply, err := p.client.ChatWithContext(ctx, messages, opts)
	if err != nil {
		return nil, fmt.Errorf("Planner LLM 调用失败: %w", err)
	}

	step, err := parseStep(reply)
	if err != nil {
		return nil, err
	}
	return step, nil
}

// parseStep 从模型回复中提取单步 JSON（可能被 markdown 包裹）
func parseStep(reply string) (*Step, error) {
	reply = strings.TrimSpace(reply)
	if idx := strings.Index(reply, "{"); idx >= 0 {
		if end := strings.LastIndex(reply, "}"); end > idx {
			reply = reply[idx : end+1]
		}
	}
	var step Step
	if err := json.Unmarshal([]byte(reply), &step); err != nil {
		return nil, fmt.Errorf("解析 Planner 输出 JSON 失败: %w", err)
	}
	return &step, nil
}
