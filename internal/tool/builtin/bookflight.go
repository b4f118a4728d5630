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

package builtin

import (
	"context"

	"booking-agent/internal/booking"
	"booking-agent/internal/tool"
)

// BookFlightName 订票工具名
const BookFlightName = "book_flight"

// BookFlightTool 在预算守护之下执行订票（高风险动作，会产生扣款）
type BookFlightTool struct {
	booker *booking.Booker
}

// NewBookFlightTool 创建订票工具
func NewBookFlightTool(booker *booking.Booker) *BookFlightTool {
	return &BookFlightTool{booker: booker}
}

func (t *BookFlightTool) Name() string { return BookFlightName }

func (t *BookFlightTool) Description() string {
	return "Book a flight for a passenger. This is a high-stakes action that charges money; it is guarded by a budget limit."
}

func (t *BookFlightTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"flight_number":  {Type: "string", Description: "The flight number to book"},
			"passenger_name": {Type: "string", Description: "Name of the passenger"},
			"price":          {Type: "number", Description: "Flight price"},
			"date":           {Type: "string", Description: "Travel date in DD-MM-YYYY format"},
		},
		Required: []string{"flight_number", "passenger_name", "price", "date"},
	}
}

// Execute 执行订票；被拒绝/失败的结果作为值返回，不作为 error
func (t *BookFlightTool) Execute(_ context.Context, input map[string]any) (tool.ToolResult, error) {
	flightNumber := stringArg(input, "flight_number")
	passengerName := stringArg(input, "passenger_name")
	price := floatArg(input, "price")
	date := stringArg(input, "date")

	out := t.booker.Book(flightNumber, passengerName, price, date)
	return resultFrom(out), nil
}
