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

package http

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"booking-agent/internal/agent"
	"booking-agent/internal/agent/planner"
	"booking-agent/internal/booking"
	"booking-agent/internal/runtime/session"
	"booking-agent/pkg/errors"
	"booking-agent/pkg/log"
	"booking-agent/pkg/metrics"
)

// Handler HTTP 处理器：持有编排器、会话管理与结果存储
type Handler struct {
	agent    *agent.Agent
	sessions *session.Manager
	ledger   *booking.Ledger
	results  *ResultStore
	logger   *log.Logger
}

// NewHandler 创建 HTTP 处理器
func NewHandler(bookingAgent *agent.Agent, sessions *session.Manager, ledger *booking.Ledger, results *ResultStore, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.NewNop()
	}
	if results == nil {
		results = NewResultStore(0)
	}
	return &Handler{
		agent:    bookingAgent,
		sessions: sessions,
		ledger:   ledger,
		results:  results,
		logger:   logger,
	}
}

// BookingRequest 创建订票任务的请求体
type BookingRequest struct {
	PassengerName string  `json:"passenger_name"`
	Departure     string  `json:"departure"`
	Destination   string  `json:"destination"`
	MaxPrice      float64 `json:"max_price"`
	BookingDate   string  `json:"booking_date"`
	SessionID     string  `json:"session_id,omitempty"`
}

// validate 仅校验请求形状；日期等业务校验由工具层完成并以结果值呈现
func (r *BookingRequest) validate() error {
	name := strings.TrimSpace(r.PassengerName)
	if len(name) < 2 || len(name) > 100 {
		return errors.Wrap(errors.ErrInvalidInput, "passenger_name must be 2-100 characters")
	}
	if strings.TrimSpace(r.Departure) == "" {
		return errors.Wrap(errors.ErrInvalidInput, "departure is required")
	}
	if strings.TrimSpace(r.Destination) == "" {
		return errors.Wrap(errors.ErrInvalidInput, "destination is required")
	}
	if r.MaxPrice <= 0 {
		return errors.Wrap(errors.ErrInvalidInput, "max_price must be positive")
	}
	if strings.TrimSpace(r.BookingDate) == "" {
		return errors.Wrap(errors.ErrInvalidInput, "booking_date is required")
	}
	return nil
}

// StepView 推理轨迹的 API 视图
type StepView struct {
	Action      string         `json:"action"`
	Input       map[string]any `json:"input,omitempty"`
	Observation string         `json:"observation"`
	Error       string         `json:"error,omitempty"`
	At          time.Time      `json:"at"`
}

// BookingResponse 订票运行的 API 响应
type BookingResponse struct {
	ID              string     `json:"id"`
	SessionID       string     `json:"session_id"`
	Status          string     `json:"status"`
	BookingID       string     `json:"booking_id,omitempty"`
	FlightNumber    string     `json:"flight_number,omitempty"`
	Price           float64    `json:"price,omitempty"`
	PNR             string     `json:"pnr,omitempty"`
	CalendarEventID string     `json:"calendar_event_id,omitempty"`
	Message         string     `json:"message"`
	State           string     `json:"state"`
	ReasoningSteps  []StepView `json:"reasoning_steps"`
	DurationMs      int64      `json:"duration_ms"`
	CreatedAt       time.Time  `json:"created_at"`
}

func responseFrom(rec *RunRecord) *BookingResponse {
	run := rec.Run
	steps := make([]StepView, 0, len(run.Steps))
	for _, st := range run.Steps {
		steps = append(steps, StepView{
			Action:      st.Action,
			Input:       st.Input,
			Observation: st.Observation,
			Error:       st.Err,
			At:          st.At,
		})
	}
	return &BookingResponse{
		ID:              rec.ID,
		SessionID:       rec.SessionID,
		Status:          run.Result.Status,
		BookingID:       run.Result.BookingID,
		FlightNumber:    run.Result.FlightNumber,
		Price:           run.Result.Price,
		PNR:             run.Result.PNR,
		CalendarEventID: run.Result.CalendarEventID,
		Message:         run.Answer,
		State:           string(run.State),
		ReasoningSteps:  steps,
		DurationMs:      run.Duration.Milliseconds(),
		CreatedAt:       rec.CreatedAt,
	}
}

// CreateBooking 发起一次订票任务并同步返回运行结果
// POST /api/bookings
func (h *Handler) CreateBooking(c context.Context, ctx *app.RequestContext) {
	var req BookingRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}
	if err := req.validate(); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	sess, err := h.sessions.GetOrCreate(c, req.SessionID)
	if err != nil {
		hlog.CtxErrorf(c, "failed to load session %s: %v", req.SessionID, err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "failed to load session",
		})
		return
	}

	goal := planner.Goal{
		PassengerName: strings.TrimSpace(req.PassengerName),
		Departure:     strings.TrimSpace(req.Departure),
		Destination:   strings.TrimSpace(req.Destination),
		MaxPrice:      req.MaxPrice,
		BookingDate:   strings.TrimSpace(req.BookingDate),
	}
	run, err := h.agent.Run(c, sess, goal)
	if err != nil {
		hlog.CtxErrorf(c, "booking run failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": fmt.Sprintf("booking run failed: %v", err),
		})
		return
	}
	if err := h.sessions.Save(c, sess); err != nil {
		h.logger.Warn("保存会话失败", "session_id", sess.ID, "error", err)
	}
	if h.ledger != nil {
		metrics.BudgetCommitted.Set(h.ledger.Committed())
	}

	rec := &RunRecord{
		SessionID: sess.ID,
		Goal:      goal,
		Run:       run,
	}
	h.results.Put(rec)

	h.logger.Info("订票运行完成",
		"run_id", rec.ID,
		"session_id", sess.ID,
		"status", run.Result.Status,
		"state", run.State,
		"steps", len(run.Steps),
	)
	ctx.JSON(consts.StatusOK, responseFrom(rec))
}

// GetBooking 查询一次订票运行的留存结果
// GET /api/bookings/:id
func (h *Handler) GetBooking(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	if id == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "id is required",
		})
		return
	}
	rec, err := h.results.Get(id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{
				"error": fmt.Sprintf("booking run not found: %s", id),
			})
			return
		}
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	ctx.JSON(consts.StatusOK, responseFrom(rec))
}

// Budget 查询进程级预算状态
// GET /api/budget
func (h *Handler) Budget(c context.Context, ctx *app.RequestContext) {
	if h.ledger == nil {
		ctx.JSON(consts.StatusServiceUnavailable, map[string]string{
			"error": "budget ledger is not configured",
		})
		return
	}
	committed := h.ledger.Committed()
	limit := h.ledger.Limit()
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"committed": committed,
		"limit":     limit,
		"remaining": limit - committed,
	})
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "booking-agent",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Metrics 暴露 Prometheus 文本格式指标
// GET /metrics
func (h *Handler) Metrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
