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

	"booking-agent/internal/booking"
	"booking-agent/internal/runtime/session"
	"booking-agent/internal/tool/builtin"
)

// BookingPlanner 规则规划器：不调用 LLM，按固定流程
// 搜索 -> 选最便宜 -> 订票 -> 写日历 推进，每次返回单步决策。
// 作为默认 Planner，行为确定、可测试。
type BookingPlanner struct{}

// NewBookingPlanner 创建规则规划器
func NewBookingPlanner() *BookingPlanner {
	return &BookingPlanner{}
}

// Next 实现 Planner：依据轨迹中已有的步骤推进状态机
func (p *BookingPlanner) Next(_ context.Context, sess *session.Session, goal Goal, _ []byte) (*Step, error) {
	steps := sess.CopySteps()

	search, ok := lastStepFor(steps, builtin.SearchFlightsName)
	if !ok {
		return &Step{
			Tool: builtin.SearchFlightsName,
			Input: map[string]any{
				"departure":    goal.Departure,
				"destination":  goal.Destination,
				"max_price":    goal.MaxPrice,
				"booking_date": goal.BookingDate,
			},
		}, nil
	}
	if search.Outcome == nil || !search.Outcome.IsSuccess() {
		return &Step{Final: fmt.Sprintf("Could not find a bookable flight: %s", search.Observation)}, nil
	}

	selected, ok := cheapestFlight(*search.Outcome)
	if !ok {
		return &Step{Final: "Search returned no usable flight entries."}, nil
	}

	book, ok := lastStepFor(steps, builtin.BookFlightName)
	if !ok {
		return &Step{
			Tool: builtin.BookFlightName,
			Input: map[string]any{
				"flight_number":  dictString(selected, "flight_number"),
				"passenger_name": goal.PassengerName,
				"price":          dictFloat(selected, "price"),
				"date":           goal.BookingDate,
			},
		}, nil
	}
	if book.Outcome == nil || !book.Outcome.IsSuccess() {
		return &Step{Final: fmt.Sprintf("Booking did not complete: %s", book.Observation)}, nil
	}

	record, ok := lastStepFor(steps, builtin.AddToCalendarName)
	if !ok {
		description := fmt.Sprintf("Flight %s (%s) from %s to %s, PNR %s",
			dictString(selected, "flight_number"),
			dictString(selected, "airline"),
			dictString(selected, "departure"),
			dictString(selected, "destination"),
			book.Outcome.GetString("pnr"))
		return &Step{
			Tool: builtin.AddToCalendarName,
			Input: map[string]any{
				"event_title": "Flight to " + dictString(selected, "destination"),
				"event_date":  goal.BookingDate,
				"event_time":  dictString(selected, "departure_time"),
				"description": description,
			},
		}, nil
	}

	summary := fmt.Sprintf("Flight %s booked for %s on %s. Booking ID: %s, PNR: %s, price ₹%.0f.",
		dictString(selected, "flight_number"),
		goal.PassengerName,
		goal.BookingDate,
		book.Outcome.GetString("booking_id"),
		book.Outcome.GetString("pnr"),
		dictFloat(selected, "price"))
	if record.Outcome != nil && record.Outcome.IsSuccess() {
		summary += fmt.Sprintf(" Calendar event %s created.", record.Outcome.GetString("event_id"))
	} else {
		summary += fmt.Sprintf(" Calendar event could not be created: %s", record.Observation)
	}
	return &Step{Final: summary}, nil
}

// lastStepFor 取轨迹中最后一次指定动作的步骤
func lastStepFor(steps []session.ReasoningStep, action string) (session.ReasoningStep, bool) {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Action == action {
			return steps[i], true
		}
	}
	return session.ReasoningStep{}, false
}

// cheapestFlight 从搜索结果取第一条航班；结果已按价格升序，
// 首条即最便宜（并列时保留原序）
func cheapestFlight(out booking.Outcome) (booking.Dict, bool) {
	v, ok := out.Get("flights")
	if !ok {
		return nil, false
	}
	flights, ok := v.([]booking.Dict)
	if !ok || len(flights) == 0 {
		return nil, false
	}
	return flights[0], true
}

func dictString(d booking.Dict, key string) string {
	for _, kv := range d {
		if kv.Key == key {
			s, _ := kv.Val.(string)
			return s
		}
	}
	return ""
}

func dictFloat(d booking.Dict, key string) float64 {
	for _, kv := range d {
		if kv.Key == key {
			switch x := kv.Val.(type) {
			case float64:
				return x
			case int:
				return float64(x)
			}
		}
	}
	return 0
}
