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

// AddToCalendarName 日历工具名
const AddToCalendarName = "add_to_calendar"

// AddToCalendarTool 将订票写入模拟日历
type AddToCalendarTool struct {
	calendar *booking.Calendar
}

// NewAddToCalendarTool 创建日历工具
func NewAddToCalendarTool(calendar *booking.Calendar) *AddToCalendarTool {
	return &AddToCalendarTool{calendar: calendar}
}

func (t *AddToCalendarTool) Name() string { return AddToCalendarName }

func (t *AddToCalendarTool) Description() string {
	return "Add a flight booking to the passenger's calendar with a reminder."
}

func (t *AddToCalendarTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"event_title": {Type: "string", Description: "Title of the calendar event, e.g. Flight to Mumbai"},
			"event_date":  {Type: "string", Description: "Date in DD-MM-YYYY format"},
			"event_time":  {Type: "string", Description: "Time in HH:MM format"},
			"description": {Type: "string", Description: "Optional event description"},
		},
		Required: []string{"event_title", "event_date", "event_time"},
	}
}

func (t *AddToCalendarTool) Execute(_ context.Context, input map[string]any) (tool.ToolResult, error) {
	title := stringArg(input, "event_title")
	date := stringArg(input, "event_date")
	clock := stringArg(input, "event_time")
	description := stringArg(input, "description")

	out := t.calendar.Record(title, date, clock, description)
	return resultFrom(out), nil
}
