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

// SearchFlightsName 搜索工具名
const SearchFlightsName = "search_flights"

// SearchFlightsTool 在模拟库存中按航线/日期/预算搜索航班
type SearchFlightsTool struct {
	inventory *booking.Inventory
}

// NewSearchFlightsTool 创建搜索工具
func NewSearchFlightsTool(inventory *booking.Inventory) *SearchFlightsTool {
	return &SearchFlightsTool{inventory: inventory}
}

func (t *SearchFlightsTool) Name() string { return SearchFlightsName }

func (t *SearchFlightsTool) Description() string {
	return "Search for available flights from departure to destination within a price range. Returns the cheapest flights sorted by price."
}

func (t *SearchFlightsTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"departure":    {Type: "string", Description: "The departure city"},
			"destination":  {Type: "string", Description: "The destination city"},
			"max_price":    {Type: "number", Description: "Maximum price willing to pay"},
			"booking_date": {Type: "string", Description: "Date of travel in DD-MM-YYYY format"},
		},
		Required: []string{"departure", "destination", "max_price", "booking_date"},
	}
}

// Execute 执行搜索；输入不合法时结果作为值返回，不作为 error
func (t *SearchFlightsTool) Execute(_ context.Context, input map[string]any) (tool.ToolResult, error) {
	departure := stringArg(input, "departure")
	destination := stringArg(input, "destination")
	maxPrice := floatArg(input, "max_price")
	date := stringArg(input, "booking_date")

	out, _ := t.inventory.Search(departure, destination, maxPrice, date)
	return resultFrom(out), nil
}
