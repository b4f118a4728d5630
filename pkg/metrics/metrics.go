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

package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		RunDuration, RunTotal,
		ToolDuration, BookingOutcomeTotal,
		BudgetCommitted,
	)
}

// RunDuration 单次预订 Run 执行耗时（秒）
var RunDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "booking_run_duration_seconds",
		Help:    "预订 Run 执行耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"planner"},
)

// RunTotal Run 总数（按最终状态）
var RunTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "booking_run_total",
		Help: "预订 Run 总数（按最终状态）",
	},
	[]string{"status"}, // found | booked | confirmed | failed
)

// ToolDuration 工具调用耗时（秒）
var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "booking_tool_duration_seconds",
		Help:    "工具调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool"},
)

// BookingOutcomeTotal 订座动作结果总数
var BookingOutcomeTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "booking_outcome_total",
		Help: "订座动作结果总数",
	},
	[]string{"outcome"}, // success | rejected | failed | invalid
)

// BudgetCommitted 当前已提交预算
var BudgetCommitted = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "booking_budget_committed",
		Help: "当前已提交预算总额",
	},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
