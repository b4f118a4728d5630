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

package agent

import (
	"regexp"
	"strconv"
	"strings"

	"booking-agent/internal/runtime/session"
	"booking-agent/internal/tool/builtin"
)

// 运行最终状态
const (
	StatusConfirmed = "confirmed" // 订票与日历都成功
	StatusBooked    = "booked"    // 订票成功，日历缺失或失败
	StatusFound     = "found"     // 找到航班但未尝试订票
	StatusFailed    = "failed"    // 订票尝试失败，或全程无结果
)

// BookingResult 从推理轨迹重建的结构化结果；只读派生，不回写轨迹
type BookingResult struct {
	BookingID       string  `json:"booking_id,omitempty"`
	FlightNumber    string  `json:"flight_number,omitempty"`
	Price           float64 `json:"price,omitempty"`
	PNR             string  `json:"pnr,omitempty"`
	CalendarEventID string  `json:"calendar_event_id,omitempty"`
	Status          string  `json:"status"`
}

var (
	bookingIDPattern = regexp.MustCompile(`'booking_id':\s*'([^']+)'`)
	flightNumPattern = regexp.MustCompile(`'flight_number':\s*'([^']+)'`)
	pricePattern     = regexp.MustCompile(`'price':\s*(\d+(?:\.\d+)?)`)
	pnrPattern       = regexp.MustCompile(`'pnr':\s*'([^']+)'`)
	eventIDPattern   = regexp.MustCompile(`'event_id':\s*'([^']+)'`)
)

// Extract 扫描全轨迹重建 BookingResult。每个字段取全轨迹中最后一次出现的值
// （后写者胜）。结构化 Outcome 优先；缺失时回退到观察文本的正则提取
// （LLM 路径的观察可能只有文本）。提取永不失败：不匹配的字段保持空值。
//
// 状态派生（按优先级）：
//  1. booking_id 与 event_id 都在 -> confirmed
//  2. 仅 booking_id -> booked
//  3. 未尝试订票但搜到了航班 -> found
//  4. 其余（含订票尝试失败）-> failed
func Extract(steps []session.ReasoningStep) (result BookingResult) {
	result = BookingResult{Status: StatusFailed}
	defer func() {
		// 提取是对半结构化文本的尽力而为，内部意外一律吞掉；
		// 命名返回值让 panic 前已提取的字段和 failed 默认状态得以保留
		_ = recover()
	}()

	offersFound := false
	bookAttempted := false
	for _, step := range steps {
		if step.Action == builtin.BookFlightName {
			bookAttempted = true
		}
		if step.Outcome != nil && step.Outcome.IsSuccess() {
			out := step.Outcome
			if _, ok := out.Get("flights_found"); ok {
				offersFound = true
			}
			if v := out.GetString("booking_id"); v != "" {
				result.BookingID = v
			}
			if v := out.GetString("flight_number"); v != "" {
				result.FlightNumber = v
			}
			if v := out.GetString("pnr"); v != "" {
				result.PNR = v
			}
			if v := out.GetString("event_id"); v != "" {
				result.CalendarEventID = v
			}
			if v, ok := out.Get("price"); ok {
				switch x := v.(type) {
				case float64:
					result.Price = x
				case int:
					result.Price = float64(x)
				}
			}
			continue
		}

		obs := step.Observation
		if strings.Contains(obs, "flights_found") {
			offersFound = true
		}
		if m := bookingIDPattern.FindStringSubmatch(obs); m != nil {
			result.BookingID = m[1]
		}
		if m := flightNumPattern.FindStringSubmatch(obs); m != nil {
			result.FlightNumber = m[1]
		}
		if m := pnrPattern.FindStringSubmatch(obs); m != nil {
			result.PNR = m[1]
		}
		if m := eventIDPattern.FindStringSubmatch(obs); m != nil {
			result.CalendarEventID = m[1]
		}
		if m := pricePattern.FindStringSubmatch(obs); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				result.Price = f
			}
		}
	}

	switch {
	case result.BookingID != "" && result.CalendarEventID != "":
		result.Status = StatusConfirmed
	case result.BookingID != "":
		result.Status = StatusBooked
	case !bookAttempted && offersFound:
		result.Status = StatusFound
	default:
		result.Status = StatusFailed
	}
	return result
}
