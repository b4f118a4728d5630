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
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"booking-agent/internal/agent"
	"booking-agent/internal/agent/executor"
	"booking-agent/internal/agent/planner"
	"booking-agent/internal/booking"
	"booking-agent/internal/runtime/session"
	"booking-agent/internal/tool/builtin"
	"booking-agent/internal/tool/registry"
	"booking-agent/pkg/log"
)

// buildBookingTestServer 构建确定性（固定随机种子、失败率 0）的完整服务
func buildBookingTestServer(t *testing.T, budget float64) (*server.Hertz, *booking.Ledger) {
	t.Helper()
	ledger := booking.NewLedger(budget)
	reg := registry.New()
	builtin.RegisterAll(reg,
		booking.NewInventory(rand.New(rand.NewSource(42))),
		booking.NewBooker(ledger, 0, rand.New(rand.NewSource(42))),
		booking.NewCalendar(0, rand.New(rand.NewSource(42))),
	)
	a := agent.New(planner.NewBookingPlanner(), executor.NewRegistryExecutor(reg), reg, log.NewNop())
	sessions := session.NewManager(session.NewMemoryStore())
	h := NewHandler(a, sessions, ledger, NewResultStore(0), log.NewNop())
	r := NewRouter(h, nil)
	return r.Build(":0"), ledger
}

func postBooking(t *testing.T, s *server.Hertz, payload map[string]interface{}) (int, *BookingResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	w := ut.PerformRequest(s.Engine, "POST", "/api/bookings",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
	resp := w.Result()
	if resp.StatusCode() != 200 {
		return resp.StatusCode(), nil
	}
	var out BookingResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		t.Fatalf("unmarshal response: %v\nbody: %s", err, resp.Body())
	}
	return resp.StatusCode(), &out
}

func validBookingPayload() map[string]interface{} {
	return map[string]interface{}{
		"passenger_name": "Asha Rao",
		"departure":      "delhi",
		"destination":    "mumbai",
		"max_price":      5000,
		"booking_date":   "25-11-2025",
	}
}

func TestCreateBookingHappyPath(t *testing.T) {
	s, ledger := buildBookingTestServer(t, 10000)

	status, resp := postBooking(t, s, validBookingPayload())
	if status != 200 {
		t.Fatalf("POST /api/bookings status = %d, want 200", status)
	}
	if resp.Status != agent.StatusConfirmed {
		t.Fatalf("status = %q, want %q", resp.Status, agent.StatusConfirmed)
	}
	if !strings.HasPrefix(resp.BookingID, "BK") {
		t.Errorf("booking_id = %q, want BK prefix", resp.BookingID)
	}
	if !strings.HasPrefix(resp.CalendarEventID, "CAL") {
		t.Errorf("calendar_event_id = %q, want CAL prefix", resp.CalendarEventID)
	}
	if len(resp.PNR) != 6 {
		t.Errorf("pnr = %q, want 6 characters", resp.PNR)
	}
	if len(resp.ReasoningSteps) != 3 {
		t.Fatalf("reasoning steps = %d, want 3", len(resp.ReasoningSteps))
	}
	wantActions := []string{builtin.SearchFlightsName, builtin.BookFlightName, builtin.AddToCalendarName}
	for i, st := range resp.ReasoningSteps {
		if st.Action != wantActions[i] {
			t.Errorf("step %d action = %q, want %q", i, st.Action, wantActions[i])
		}
	}
	if got := resp.ReasoningSteps[0].Input["departure"]; got != "delhi" {
		t.Errorf("search step input departure = %v, want delhi", got)
	}
	if got := resp.ReasoningSteps[0].Input["destination"]; got != "mumbai" {
		t.Errorf("search step input destination = %v, want mumbai", got)
	}
	if ledger.Committed() != resp.Price {
		t.Errorf("ledger committed = %.0f, want %.0f", ledger.Committed(), resp.Price)
	}
	if resp.SessionID == "" || resp.ID == "" {
		t.Errorf("missing identifiers: id=%q session_id=%q", resp.ID, resp.SessionID)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	s, _ := buildBookingTestServer(t, 10000)

	cases := []struct {
		name  string
		mut   func(map[string]interface{})
	}{
		{"short passenger name", func(p map[string]interface{}) { p["passenger_name"] = "A" }},
		{"missing departure", func(p map[string]interface{}) { p["departure"] = "" }},
		{"missing destination", func(p map[string]interface{}) { delete(p, "destination") }},
		{"zero max price", func(p map[string]interface{}) { p["max_price"] = 0 }},
		{"negative max price", func(p map[string]interface{}) { p["max_price"] = -100 }},
		{"missing booking date", func(p map[string]interface{}) { p["booking_date"] = "  " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := validBookingPayload()
			tc.mut(payload)
			status, _ := postBooking(t, s, payload)
			if status != 400 {
				t.Fatalf("status = %d, want 400", status)
			}
		})
	}
}

func TestCreateBookingMalformedBody(t *testing.T) {
	s, _ := buildBookingTestServer(t, 10000)

	body := []byte(`{not json`)
	w := ut.PerformRequest(s.Engine, "POST", "/api/bookings",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
	if got := w.Result().StatusCode(); got != 400 {
		t.Fatalf("status = %d, want 400", got)
	}
}

// 无效日期不是请求形状问题：工具层把它当结果值处理，API 仍返回 200
func TestCreateBookingInvalidDateRunsAndFails(t *testing.T) {
	s, _ := buildBookingTestServer(t, 10000)

	payload := validBookingPayload()
	payload["booking_date"] = "31-02-2025"
	status, resp := postBooking(t, s, payload)
	if status != 200 {
		t.Fatalf("status = %d, want 200", status)
	}
	if resp.Status != agent.StatusFailed {
		t.Errorf("status = %q, want %q", resp.Status, agent.StatusFailed)
	}
	if resp.BookingID != "" {
		t.Errorf("booking_id = %q, want empty", resp.BookingID)
	}
}

func TestCreateBookingBudgetRejection(t *testing.T) {
	s, ledger := buildBookingTestServer(t, 1000)

	status, resp := postBooking(t, s, validBookingPayload())
	if status != 200 {
		t.Fatalf("status = %d, want 200", status)
	}
	if resp.Status != agent.StatusFailed {
		t.Errorf("status = %q, want %q", resp.Status, agent.StatusFailed)
	}
	if !strings.Contains(resp.Message, "BOOKING BLOCKED") {
		t.Errorf("message = %q, want budget rejection", resp.Message)
	}
	if ledger.Committed() != 0 {
		t.Errorf("ledger committed = %.0f, want 0", ledger.Committed())
	}
}

func TestGetBookingRoundTrip(t *testing.T) {
	s, _ := buildBookingTestServer(t, 10000)

	_, created := postBooking(t, s, validBookingPayload())
	w := ut.PerformRequest(s.Engine, "GET", "/api/bookings/"+created.ID, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("GET status = %d, want 200", resp.StatusCode())
	}
	var got BookingResponse
	if err := json.Unmarshal(resp.Body(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != created.ID || got.BookingID != created.BookingID || got.Status != created.Status {
		t.Errorf("roundtrip mismatch: got %+v, created %+v", got, created)
	}
}

func TestGetBookingNotFound(t *testing.T) {
	s, _ := buildBookingTestServer(t, 10000)

	w := ut.PerformRequest(s.Engine, "GET", "/api/bookings/run-does-not-exist", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 404 {
		t.Fatalf("status = %d, want 404", got)
	}
}

func TestBudgetEndpoint(t *testing.T) {
	s, _ := buildBookingTestServer(t, 10000)

	_, created := postBooking(t, s, validBookingPayload())

	w := ut.PerformRequest(s.Engine, "GET", "/api/budget", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}
	var got struct {
		Committed float64 `json:"committed"`
		Limit     float64 `json:"limit"`
		Remaining float64 `json:"remaining"`
	}
	if err := json.Unmarshal(resp.Body(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Limit != 10000 {
		t.Errorf("limit = %.0f, want 10000", got.Limit)
	}
	if got.Committed != created.Price {
		t.Errorf("committed = %.0f, want %.0f", got.Committed, created.Price)
	}
	if got.Remaining != got.Limit-got.Committed {
		t.Errorf("remaining = %.0f, want %.0f", got.Remaining, got.Limit-got.Committed)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := buildBookingTestServer(t, 10000)

	w := ut.PerformRequest(s.Engine, "GET", "/api/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}
	if !strings.Contains(string(resp.Body()), "healthy") {
		t.Errorf("body = %s, want healthy", resp.Body())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := buildBookingTestServer(t, 10000)

	postBooking(t, s, validBookingPayload())

	w := ut.PerformRequest(s.Engine, "GET", "/metrics", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}
	body := string(resp.Body())
	if !strings.Contains(body, "booking_run_total") {
		t.Errorf("metrics output missing booking_run_total:\n%s", body)
	}
	if !strings.Contains(body, "booking_budget_committed") {
		t.Errorf("metrics output missing booking_budget_committed")
	}
}

// 同一 session_id 连续两次预订：预算在进程级账本上累计
func TestCreateBookingSessionReuseAccumulatesSpend(t *testing.T) {
	s, ledger := buildBookingTestServer(t, 100000)

	_, first := postBooking(t, s, validBookingPayload())
	payload := validBookingPayload()
	payload["session_id"] = first.SessionID
	_, second := postBooking(t, s, payload)

	if second.SessionID != first.SessionID {
		t.Errorf("session_id = %q, want %q", second.SessionID, first.SessionID)
	}
	want := first.Price + second.Price
	if ledger.Committed() != want {
		t.Errorf("ledger committed = %.0f, want %.0f", ledger.Committed(), want)
	}
}
