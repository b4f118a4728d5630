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

// Package builtin 提供内建订票工具集：搜索、订票、日历
package builtin

import (
	"booking-agent/internal/booking"
	"booking-agent/internal/tool"
	"booking-agent/internal/tool/registry"
)

// RegisterAll 将三个内建工具注册到 Registry
func RegisterAll(reg *registry.Registry, inventory *booking.Inventory, booker *booking.Booker, calendar *booking.Calendar) {
	reg.Register(NewSearchFlightsTool(inventory))
	reg.Register(NewBookFlightTool(booker))
	reg.Register(NewAddToCalendarTool(calendar))
}

// resultFrom 将领域 Outcome 转为工具结果；非 success 也作为内容返回，
// 由编排器依据结构化 Kind 决策，不经由 error 通道
func resultFrom(out booking.Outcome) tool.ToolResult {
	res := tool.ToolResult{Content: out.Observation(), Outcome: &out}
	if !out.IsSuccess() {
		res.Err = out.Reason
	}
	return res
}

// stringArg 从输入中取字符串参数，缺失或类型不符返回空串
func stringArg(input map[string]any, key string) string {
	v, ok := input[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// floatArg 从输入中取数值参数；JSON 解码后数值可能是 float64 或 int
func floatArg(input map[string]any, key string) float64 {
	switch v := input[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
