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
	"fmt"

	"booking-agent/internal/runtime/session"
)

// Goal 一次订票任务的目标：乘客、航线、预算、日期
type Goal struct {
	PassengerName string  `json:"passenger_name"`
	Departure     string  `json:"departure"`
	Destination   string  `json:"destination"`
	MaxPrice      float64 `json:"max_price"`
	BookingDate   string  `json:"booking_date"`
}

// Describe 目标的自然语言描述（供 LLM Planner 提示词使用）
func (g Goal) Describe() string {
	return fmt.Sprintf(
		"Passenger Name: %s\nMaximum Price: ₹%.0f\nDeparture: %s\nDestination: %s\nTravel Date: %s",
		g.PassengerName, g.MaxPrice, g.Departure, g.Destination, g.BookingDate)
}

// Step 单步决策：要么调用工具，要么返回最终回答
type Step struct {
	Tool  string         `json:"tool"`
	Input map[string]any `json:"input"`
	Final string         `json:"final_answer"`
}

// Planner 编排大脑：基于当前推理轨迹做单步决策（协作式 step 函数，
// 由编排器在迭代上限内反复调用）
type Planner interface {
	// Next 返回下一步要执行的工具步骤或最终回答
	Next(ctx context.Context, sess *session.Session, goal Goal, toolsSchemaJSON []byte) (*Step, error)
}
