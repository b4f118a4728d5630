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

package booking

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// DefaultCalendarFailRate 模拟日历写入失败概率
const DefaultCalendarFailRate = 0.02

// eventLayout 日历事件的日期时间格式（DD-MM-YYYY HH:MM）
const eventLayout = "02-01-2006 15:04"

// Calendar 模拟日历集成；除事件 ID 生成外无状态，不触碰共享账本
type Calendar struct {
	failRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCalendar 创建日历记录器；failRate < 0 时使用 DefaultCalendarFailRate
func NewCalendar(failRate float64, rng *rand.Rand) *Calendar {
	if failRate < 0 {
		failRate = DefaultCalendarFailRate
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Calendar{failRate: failRate, rng: rng}
}

// Record 将航班写入日历。标题/日期/时间任一为空或日期时间不合法返回
// invalid_input；以 failRate 概率模拟写入失败。
func (c *Calendar) Record(title, date, clock, description string) Outcome {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(date) == "" || strings.TrimSpace(clock) == "" {
		return Invalid("Error: Event title, date, and time are required")
	}
	if _, err := time.Parse(eventLayout, date+" "+clock); err != nil {
		return Invalid("Error: Invalid date/time format. Use DD-MM-YYYY for date and HH:MM for time. Details: %v", err)
	}

	c.mu.Lock()
	draw := c.rng.Float64()
	eventID := fmt.Sprintf("CAL%06d", c.rng.Intn(1000000))
	c.mu.Unlock()

	if draw < c.failRate {
		return Failed("Error: Failed to add event to calendar. Please try again.")
	}

	return Success(
		KV{Key: "status", Val: "success"},
		KV{Key: "event_id", Val: eventID},
		KV{Key: "title", Val: title},
		KV{Key: "date", Val: date},
		KV{Key: "time", Val: clock},
		KV{Key: "description", Val: description},
		KV{Key: "created_at", Val: time.Now().UTC().Format(time.RFC3339)},
		KV{Key: "calendar", Val: "Primary Calendar"},
		KV{Key: "reminder_set", Val: true},
		KV{Key: "reminder_time", Val: "2 hours before"},
		KV{Key: "message", Val: fmt.Sprintf("Event '%s' added to calendar successfully", title)},
		KV{Key: "sync_status", Val: "synced"},
	)
}
