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
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"booking-agent/internal/agent/executor"
	"booking-agent/internal/agent/planner"
	"booking-agent/internal/runtime/session"
	"booking-agent/internal/tool"
	"booking-agent/internal/tool/builtin"
	"booking-agent/pkg/log"
	"booking-agent/pkg/metrics"
)

// RunState 编排状态机的状态
type RunState string

const (
	StateStart     RunState = "START"
	StateSearching RunState = "SEARCHING"
	StateSelecting RunState = "SELECTING"
	StateBooking   RunState = "BOOKING"
	StateRecording RunState = "RECORDING"
	StateDone      RunState = "DONE"
	StateErrored   RunState = "ERRORED"
)

// DefaultMaxIterations 单次运行的迭代上限
const DefaultMaxIterations = 10

// DefaultObservationLimit 写入轨迹的观察文本截断长度。
// 截断只为轨迹可读性，正确性依赖结构化 Outcome，不依赖文本。
const DefaultObservationLimit = 200

// RunResult 单次订票编排的结果
type RunResult struct {
	Answer   string                  `json:"answer"`
	Result   BookingResult           `json:"result"`
	State    RunState                `json:"state"`
	Steps    []session.ReasoningStep `json:"reasoning_steps"`
	Duration time.Duration           `json:"duration"`
}

// SchemaProvider 提供供 LLM 使用的工具 Schema
type SchemaProvider interface {
	SchemasForLLM() ([]byte, error)
}

// Agent 编排器：持有 Planner 与 Executor，驱动
// START -> SEARCHING -> SELECTING -> BOOKING -> RECORDING -> DONE 状态机，
// 任一非终态可进入 ERRORED。所有动作级失败以值的形式进入轨迹，不抛错。
type Agent struct {
	planner        planner.Planner
	executor       executor.Executor
	schemaProvider SchemaProvider
	logger         *log.Logger
	maxIterations  int
	obsLimit       int
}

// Option 可选配置
type Option func(*Agent)

// WithMaxIterations 设置单次运行的迭代上限
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithObservationLimit 设置观察文本截断长度
func WithObservationLimit(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.obsLimit = n
		}
	}
}

// New 创建编排器
func New(p planner.Planner, exec executor.Executor, schemaProvider SchemaProvider, logger *log.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &Agent{
		planner:        p,
		executor:       exec,
		schemaProvider: schemaProvider,
		logger:         logger,
		maxIterations:  DefaultMaxIterations,
		obsLimit:       DefaultObservationLimit,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run 执行一次订票编排：轨迹清空后由 Planner 逐步驱动，
// 直到 Final、规划失败或迭代上限。规划失败转为失败结果而非向上抛错。
func (a *Agent) Run(ctx context.Context, sess *session.Session, goal planner.Goal) (*RunResult, error) {
	start := time.Now()
	if a.planner == nil || a.executor == nil {
		return nil, fmt.Errorf("agent 未正确配置（缺少 Planner/Executor）")
	}
	ctx, span := otel.Tracer("booking-agent").Start(ctx, "booking.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.departure", goal.Departure),
		attribute.String("booking.destination", goal.Destination),
		attribute.Float64("booking.max_price", goal.MaxPrice),
	)

	var schemas []byte
	if a.schemaProvider != nil {
		var err error
		schemas, err = a.schemaProvider.SchemasForLLM()
		if err != nil {
			return nil, fmt.Errorf("获取工具 Schema 失败: %w", err)
		}
	}
	if sess == nil {
		sess = session.New("")
	}

	// 轨迹由单次运行独占
	sess.ClearSteps()
	state := StateStart
	a.transition(sess, &state, StateSearching)

	answer := ""
	iterations := 0
	for iterations < a.maxIterations {
		step, err := a.planner.Next(ctx, sess, goal, schemas)
		if err != nil {
			// 规划失败转为失败的运行结果
			a.logger.Error("planner 决策失败", "session", sess.ID, "error", err)
			answer = fmt.Sprintf("Error processing booking: %v", err)
			a.transition(sess, &state, StateErrored)
			break
		}
		if step.Final != "" {
			answer = step.Final
			if state != StateErrored {
				a.transition(sess, &state, StateDone)
			}
			break
		}
		if step.Tool == "" {
			answer = "Error processing booking: planner returned neither a tool nor a final answer"
			a.transition(sess, &state, StateErrored)
			break
		}

		a.transition(sess, &state, stateFor(step.Tool))
		res, err := a.executor.ExecuteStep(ctx, step)
		if err != nil {
			res = tool.ToolResult{Err: err.Error()}
		}
		obs := res.Content
		if obs == "" && res.Err != "" {
			obs = res.Err
		}
		sess.AddStep(session.ReasoningStep{
			Action:      step.Tool,
			Input:       step.Input,
			Observation: truncate(obs, a.obsLimit),
			Err:         res.Err,
			Outcome:     res.Outcome,
		})
		iterations++

		if step.Tool == builtin.BookFlightName && res.Outcome != nil {
			metrics.BookingOutcomeTotal.WithLabelValues(string(res.Outcome.Kind)).Inc()
		}
		// 搜索成功后进入选择；选择本身不产生工具步骤
		if step.Tool == builtin.SearchFlightsName && res.Outcome != nil && res.Outcome.IsSuccess() {
			a.transition(sess, &state, StateSelecting)
		}
		if res.Outcome != nil && !res.Outcome.IsSuccess() && step.Tool != builtin.AddToCalendarName {
			// 订票被拒/失败、搜索无结果都是本次运行的终态；
			// 日历失败只降级最终状态，不阻止 DONE
			a.transition(sess, &state, StateErrored)
		}
	}
	if answer == "" && iterations >= a.maxIterations {
		answer = "Error processing booking: iteration limit exceeded"
		a.transition(sess, &state, StateErrored)
	}

	steps := sess.CopySteps()
	result := Extract(steps)

	duration := time.Since(start)
	plannerName := fmt.Sprintf("%T", a.planner)
	metrics.RunDuration.WithLabelValues(plannerName).Observe(duration.Seconds())
	metrics.RunTotal.WithLabelValues(result.Status).Inc()
	a.logger.Info("订票编排完成",
		"session", sess.ID,
		"state", string(state),
		"status", result.Status,
		"steps", len(steps),
		"duration", duration.String(),
	)

	return &RunResult{
		Answer:   answer,
		Result:   result,
		State:    state,
		Steps:    steps,
		Duration: duration,
	}, nil
}

// transition 记录状态迁移（写入 WorkingState 并打日志）
func (a *Agent) transition(sess *session.Session, state *RunState, next RunState) {
	if *state == next {
		return
	}
	if a.logger != nil {
		a.logger.Debug("状态迁移", "session", sess.ID, "from", string(*state), "to", string(next))
	}
	*state = next
	sess.WorkingStateSet(session.WorkingKeyRunState, string(next))
}

func stateFor(toolName string) RunState {
	switch toolName {
	case builtin.SearchFlightsName:
		return StateSearching
	case builtin.BookFlightName:
		return StateBooking
	case builtin.AddToCalendarName:
		return StateRecording
	default:
		return StateSearching
	}
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
